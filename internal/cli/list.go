// Package cli — list.go implements the "tise groups" and "tise list"
// commands.
//
// groups shows every entity group in document order with its entity count.
// list shows the entities of one group with their resolved display names.
// Group names may be given with or without the namespace prefix.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/model"
)

// NewGroupsCommand creates the "groups" cobra command.
func NewGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the entity groups of a save",
		Long: `List every entity group of a save with its entity count.

Examples:
  tise groups -f Autosave.json
  tise groups -f Autosave.gz --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runGroups(ctx context.Context, out io.Writer) error {
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()
	groups := doc.Groups()
	currentID, _ := doc.CurrentID()

	if IsJSONOutput() {
		return writeJSON(out, struct {
			CurrentID int64                `json:"currentID"`
			Entities  int                  `json:"entities"`
			Groups    []model.GroupSummary `json:"groups"`
		}{CurrentID: currentID, Entities: doc.Len(), Groups: groups})
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.DisplayName, StyleNumber.Render(strconv.Itoa(g.Count))})
	}
	printTable(out, []string{"GROUP", "ENTITIES"}, rows)
	printInfo(out, "%d entities, next ID %s", doc.Len(), FormatID(currentID))
	return nil
}

// listFlags holds the flag values for the list command.
type listFlags struct {
	// limit caps the number of rows printed; 0 means no limit.
	limit int
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list <group>",
		Short: "List the entities of a group",
		Long: `List the entities of one group with their IDs and display names.

The group may be given with or without the namespace prefix.

Examples:
  tise list -f Autosave.json TICouncilorState
  tise list -f Autosave.json PavonisInteractive.TerraInvicta.TINationState --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 0, "Show at most this many entities (0 = all)")

	return cmd
}

func runList(ctx context.Context, out io.Writer, group string, flags *listFlags) error {
	if flags.limit < 0 {
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("invalid --limit %d: must be 0 or more", flags.limit))
	}

	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()

	stored, err := doc.ResolveGroup(group)
	if err != nil {
		return err
	}
	entities, err := doc.EntitiesInGroup(stored)
	if err != nil {
		return err
	}
	total := len(entities)
	if flags.limit > 0 && total > flags.limit {
		entities = entities[:flags.limit]
	}

	if IsJSONOutput() {
		return writeJSON(out, struct {
			Group    string                `json:"group"`
			Total    int                   `json:"total"`
			Entities []model.EntitySummary `json:"entities"`
		}{Group: stored, Total: total, Entities: entities})
	}

	if total == 0 {
		printInfo(out, "%s has no entities.", doc.DisplayGroupName(stored))
		return nil
	}

	fmt.Fprintln(out, StyleTitle.Render(doc.DisplayGroupName(stored)))
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{StyleNumber.Render(FormatID(e.ID)), e.DisplayName})
	}
	printTable(out, []string{"ID", "NAME"}, rows)

	if len(entities) < total {
		printInfo(out, "%d of %d shown", len(entities), total)
	}
	return nil
}

// FormatID renders an entity ID the way references are shown: "#42".
func FormatID(id int64) string {
	return "#" + strconv.FormatInt(id, 10)
}
