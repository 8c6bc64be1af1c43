// Package cli — find.go implements the "tise find" command.
//
// find looks entities up by ID or display name, or with --props searches
// every property name and value of every entity for a piece of text.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/model"
)

// defaultFindLimit caps search output unless -n says otherwise.
const defaultFindLimit = 100

// findFlags holds the flag values for the find command.
type findFlags struct {
	// props searches property names and values instead of IDs and names.
	props bool

	// limit caps the number of results; 0 means no limit.
	limit int
}

// NewFindCommand creates the "find" cobra command.
func NewFindCommand() *cobra.Command {
	flags := &findFlags{}

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Search entities by ID, name or property",
		Long: `Search the save for entities.

By default the query matches entity IDs (as a substring of the number) and
display names, ignoring case. With --props it matches every property whose
name or value contains the query, looking inside nested lists and objects.

Examples:
  tise find -f Autosave.json france
  tise find -f Autosave.json 123 -n 10
  tise find -f Autosave.json --props missionControl --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.props, "props", false, "Search property names and values")
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", defaultFindLimit, "Show at most this many results (0 = all)")

	return cmd
}

func runFind(ctx context.Context, out io.Writer, query string, flags *findFlags) error {
	if flags.limit < 0 {
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("invalid --limit %d: must be 0 or more", flags.limit))
	}

	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()

	if flags.props {
		hits := doc.FindProperties(query, flags.limit)
		if IsJSONOutput() {
			return writeJSON(out, struct {
				Query string      `json:"query"`
				Hits  []model.Hit `json:"hits"`
			}{Query: query, Hits: append([]model.Hit{}, hits...)})
		}
		if len(hits) == 0 {
			printInfo(out, "No properties match %q.", query)
			return nil
		}
		rows := make([][]string, 0, len(hits))
		for _, h := range hits {
			rows = append(rows, []string{
				StyleNumber.Render(FormatID(h.ID)),
				doc.DisplayGroupName(h.Location.Group),
				StyleKey.Render(h.Property),
				h.Preview,
			})
		}
		printTable(out, []string{"ID", "GROUP", "PROPERTY", "VALUE"}, rows)
		return nil
	}

	entities := doc.FindEntities(query, flags.limit)
	if IsJSONOutput() {
		return writeJSON(out, struct {
			Query    string                `json:"query"`
			Entities []model.EntitySummary `json:"entities"`
		}{Query: query, Entities: entities})
	}
	if len(entities) == 0 {
		printInfo(out, "No entities match %q.", query)
		return nil
	}
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{
			StyleNumber.Render(FormatID(e.ID)),
			e.DisplayName,
			doc.DisplayGroupName(e.Group),
		})
	}
	printTable(out, []string{"ID", "NAME", "GROUP"}, rows)
	return nil
}
