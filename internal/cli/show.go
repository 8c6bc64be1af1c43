// Package cli — show.go implements the "tise show" and "tise get" commands.
//
// show prints every property of one entity: its name, its shape (how the
// editor treats it) and a one-line summary with references resolved to
// display names. get prints the raw value of a single property.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/property"
)

// Output formats accepted by show --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// showFlags holds the flag values for the show command.
type showFlags struct {
	// output selects text, json or yaml. The global --json flag implies json.
	output string
}

// NewShowCommand creates the "show" cobra command.
func NewShowCommand() *cobra.Command {
	flags := &showFlags{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the properties of an entity",
		Long: `Show every property of an entity with its shape and a summary.

With --output json the entity is printed in the save file's own JSON
dialect; with --output yaml it is exported as YAML in the same key order.

Examples:
  tise show -f Autosave.json 1234
  tise show -f Autosave.json 1234 --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runShow(cmd.Context(), cmd.OutOrStdout(), id, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", outputText, "Output format: text, json, yaml")

	return cmd
}

func runShow(ctx context.Context, out io.Writer, id int64, flags *showFlags) error {
	// Step 1: Validate the output format before touching the file.
	format := strings.ToLower(flags.output)
	if IsJSONOutput() {
		format = outputJSON
	}
	switch format {
	case outputText, outputJSON, outputYAML:
	default:
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid output format %q: valid values are text, json, yaml", flags.output))
	}

	// Step 2: Load and locate the entity.
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()

	if format != outputText {
		props, err := doc.CloneEntity(id)
		if err != nil {
			return err
		}
		if format == outputYAML {
			return writeYAML(out, props)
		}
		return writeSaveJSON(out, props)
	}

	// Step 3: Text rendering.
	props, err := doc.Properties(id)
	if err != nil {
		return err
	}
	loc, _ := doc.Locate(id)

	fmt.Fprintf(out, "%s %s  %s\n",
		StyleNumber.Render(FormatID(id)),
		StyleTitle.Render(doc.ResolveDisplayName(id)),
		StyleDim.Render(fmt.Sprintf("%s[%d]", doc.DisplayGroupName(loc.Group), loc.Index)),
	)
	rows := make([][]string, 0, len(props))
	for _, p := range props {
		rows = append(rows, []string{
			StyleKey.Render(p.Name),
			StyleDim.Render(p.Value.Shape().String()),
			property.Summary(p.Value, doc.ResolveDisplayName),
		})
	}
	printTable(out, []string{"PROPERTY", "SHAPE", "VALUE"}, rows)
	return nil
}

// NewGetCommand creates the "get" cobra command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> <property>",
		Short: "Print the raw value of one property",
		Long: `Print the raw JSON value of one property of an entity, in the save
file's own formatting.

Examples:
  tise get -f Autosave.json 1234 displayName
  tise get -f Autosave.json 1234 publicOpinion`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runGet(cmd.Context(), cmd.OutOrStdout(), id, args[1])
		},
	}
}

func runGet(ctx context.Context, out io.Writer, id int64, key string) error {
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	v, err := s.Document().GetProperty(id, key)
	if err != nil {
		return err
	}
	return writeSaveJSON(out, v)
}
