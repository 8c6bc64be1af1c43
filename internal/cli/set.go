// Package cli — set.go implements the "tise set" command.
//
// set edits one property of one entity and saves the file. The new value is
// entered as text and goes through the same editor the property's shape
// selects: scalars are parsed against their current kind, references take a
// bare ID, reference lists take comma-separated IDs, flat objects take
// "key=value" pairs, and anything nested takes raw JSON. A public opinion
// distribution recomputes its remainder field automatically.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/property"
)

// setFlags holds the flag values for the set command.
type setFlags struct {
	// null erases the property to JSON null.
	null bool

	// fields are "key=value" assignments for object-shaped properties.
	fields []string

	// output saves to a different file instead of overwriting the input.
	output string

	// dryRun prints the result without writing anything.
	dryRun bool
}

// NewSetCommand creates the "set" cobra command.
func NewSetCommand() *cobra.Command {
	flags := &setFlags{}

	cmd := &cobra.Command{
		Use:   "set <id> <property> [value]",
		Short: "Edit one property of an entity",
		Long: `Edit one property of an entity and save the file.

Exactly one of a value argument, --null or --set must be given. The value is
checked against the property's current shape; a rejected value leaves the
file untouched. The file is overwritten in place unless -o names another
destination (a .gz destination is written compressed).

Examples:
  tise set -f Autosave.json 1234 loyalty 9
  tise set -f Autosave.json 1234 home 5678
  tise set -f Autosave.json 1234 allies "5678, 91011"
  tise set -f Autosave.json 2345 publicOpinion --set Resistance=0.4 --set Servants=0.1
  tise set -f Autosave.json 1234 displayName --null -o Edited.json`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			value, hasValue := "", len(args) == 3
			if hasValue {
				value = args[2]
			}
			return runSet(cmd.Context(), cmd.OutOrStdout(), id, args[1], value, hasValue, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.null, "null", false, "Erase the property to null")
	cmd.Flags().StringArrayVar(&flags.fields, "set", nil, "Set one field of an object property (key=value, repeatable)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to this file instead of the input")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Show the new value without saving")

	return cmd
}

func runSet(ctx context.Context, out io.Writer, id int64, key, value string, hasValue bool, flags *setFlags) error {
	// Step 1: Exactly one source for the new value.
	sources := 0
	for _, given := range []bool{hasValue, flags.null, len(flags.fields) > 0} {
		if given {
			sources++
		}
	}
	if sources != 1 {
		return model.NewCLIError(model.ExitGeneralError,
			"give exactly one of a value argument, --null or --set")
	}

	// Step 2: Load and classify the current value.
	s, err := openSession(ctx, "")
	if err != nil {
		return err
	}
	doc := s.Document()
	logger := loggerFromContext(ctx)

	current, err := doc.Property(id, key)
	if err != nil {
		return err
	}
	ed := property.NewEditor(current)
	logger.Debug("editing property", "id", id, "property", key, "shape", ed.Shape())

	// Step 3: Apply the edit and build the new value.
	next, err := applyEdit(ed, value, flags)
	if err != nil {
		return err
	}

	// Step 4: Write it into the document and save.
	if err := doc.SetProperty(id, key, next); err != nil {
		return err
	}
	summary := property.Summary(property.Classify(key, next, doc.Rules()), doc.ResolveDisplayName)

	target := s.Path()
	if !flags.dryRun {
		if flags.output != "" {
			err = s.SaveAs(flags.output)
		} else {
			err = s.Save()
		}
		if err != nil {
			return err
		}
		target = s.Path()
	}

	if IsJSONOutput() {
		return writeJSON(out, struct {
			ID       int64  `json:"id"`
			Property string `json:"property"`
			Value    string `json:"value"`
			Path     string `json:"path"`
			Saved    bool   `json:"saved"`
		}{ID: id, Property: key, Value: summary, Path: target, Saved: !flags.dryRun})
	}

	if flags.dryRun {
		printInfo(out, "%s.%s %s %s (dry run, not saved)", FormatID(id), key, iconArrow, summary)
		return nil
	}
	printSuccess(out, "%s.%s %s %s", FormatID(id), key, iconArrow, summary)
	printInfo(out, "saved %s", target)
	return nil
}

// applyEdit feeds the requested change to the editor and materializes it.
func applyEdit(ed property.Editor, value string, flags *setFlags) (any, error) {
	switch {
	case flags.null:
		n, ok := ed.(property.Nuller)
		if !ok {
			// Non-scalar shapes have no null text form; erase directly.
			return nil, nil
		}
		n.SetNull()
	case len(flags.fields) > 0:
		fs, ok := ed.(property.FieldSetter)
		if !ok {
			return nil, fmt.Errorf("%w: --set needs an object property, this one is %s",
				model.ErrValidationFailure, ed.Shape())
		}
		for _, assignment := range flags.fields {
			k, v, ok := strings.Cut(assignment, "=")
			if !ok {
				return nil, fmt.Errorf("%w: --set %q is not key=value", model.ErrValidationFailure, assignment)
			}
			if err := fs.SetField(strings.TrimSpace(k), strings.TrimSpace(v)); err != nil {
				return nil, err
			}
		}
	default:
		ed.Set(value)
	}
	return ed.Materialize()
}

// parseID accepts an entity ID with or without a leading '#'.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id < 0 {
		return 0, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid entity ID %q: must be a non-negative integer", s))
	}
	return id, nil
}
