// Package cli — ref.go implements the "tise ref" and "tise check" commands.
//
// ref resolves an entity ID the way the editor resolves a reference: to a
// display name and a storage location, or to the unknown sentinel when no
// entity carries the ID. check scans the whole save for such dangling
// references.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/model"
)

// NewRefCommand creates the "ref" cobra command.
func NewRefCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ref <id>...",
		Short: "Resolve entity IDs to names and locations",
		Long: `Resolve one or more entity IDs to their display names and the group
and position they are stored at. Unknown IDs resolve to the unknown
sentinel; that is not an error.

Examples:
  tise ref -f Autosave.json 1234 5678`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return runRef(cmd.Context(), cmd.OutOrStdout(), ids)
		},
	}
}

// refJSON is one resolved ID in JSON output.
type refJSON struct {
	ID          int64           `json:"id"`
	DisplayName string          `json:"displayName"`
	Found       bool            `json:"found"`
	Location    *model.Location `json:"location,omitempty"`
}

func runRef(ctx context.Context, out io.Writer, ids []int64) error {
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()

	refs := make([]refJSON, 0, len(ids))
	for _, id := range ids {
		r := refJSON{ID: id, DisplayName: doc.ResolveDisplayName(id)}
		if loc, ok := doc.Locate(id); ok {
			r.Found = true
			r.Location = &loc
		}
		refs = append(refs, r)
	}

	if IsJSONOutput() {
		return writeJSON(out, struct {
			References []refJSON `json:"references"`
		}{References: refs})
	}

	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		where := StyleDim.Render("-")
		if r.Location != nil {
			where = fmt.Sprintf("%s[%d]", doc.DisplayGroupName(r.Location.Group), r.Location.Index)
		}
		rows = append(rows, []string{StyleNumber.Render(FormatID(r.ID)), r.DisplayName, where})
	}
	printTable(out, []string{"ID", "NAME", "LOCATION"}, rows)
	return nil
}

// checkFlags holds the flag values for the check command.
type checkFlags struct {
	// strict turns findings into a failing exit code.
	strict bool
}

// NewCheckCommand creates the "check" cobra command.
func NewCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report references to entities that do not exist",
		Long: `Scan every entity for references whose target ID is not in the save.

The game leaves such references behind when it removes entities, so they
are reported but do not fail the command unless --strict is given.

Examples:
  tise check -f Autosave.json
  tise check -f Autosave.json --strict --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Exit non-zero when dangling references are found")

	return cmd
}

func runCheck(ctx context.Context, out io.Writer, flags *checkFlags) error {
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()
	issues := doc.Check()

	if IsJSONOutput() {
		if err := writeJSON(out, struct {
			Entities int           `json:"entities"`
			Issues   []model.Issue `json:"issues"`
		}{Entities: doc.Len(), Issues: append([]model.Issue{}, issues...)}); err != nil {
			return err
		}
	} else if len(issues) == 0 {
		printSuccess(out, "%s entities, no dangling references", StyleNumber.Render(strconv.Itoa(doc.Len())))
	} else {
		for _, issue := range issues {
			printWarning(out, "%s", issue.String())
		}
		printInfo(out, "%d dangling references in %d entities", len(issues), doc.Len())
	}

	if flags.strict && len(issues) > 0 {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("%d dangling references found", len(issues)))
	}
	return nil
}
