// Package cli — format.go implements the "tise fmt" and "tise saves"
// commands.
//
// fmt re-serializes a save in the game's canonical formatting, which is
// also how to convert between plain and compressed saves. saves lists the
// save files in the game's save directory.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/savefile"
)

// fmtFlags holds the flag values for the fmt command.
type fmtFlags struct {
	// output is the destination file; empty prints the text to stdout.
	output string
}

// NewFmtCommand creates the "fmt" cobra command.
func NewFmtCommand() *cobra.Command {
	flags := &fmtFlags{}

	cmd := &cobra.Command{
		Use:   "fmt [save]",
		Short: "Re-serialize a save in canonical formatting",
		Long: `Load a save and write it back in the game's canonical formatting.

Without -o the text is printed to stdout. With -o it is written to that
file, compressed when the name ends in .gz. The input may be given as an
argument or with --file.

Examples:
  tise fmt Autosave.json
  tise fmt Autosave.json -o Autosave.json.gz`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runFmt(cmd.Context(), cmd.OutOrStdout(), path, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func runFmt(ctx context.Context, out io.Writer, path string, flags *fmtFlags) error {
	s, err := openSession(ctx, path)
	if err != nil {
		return err
	}

	if flags.output == "" {
		text, err := s.Generate(model.FormatJSON)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(text))
		return err
	}

	format := savefile.TargetFormat(flags.output)
	data, err := s.Generate(format)
	if err != nil {
		return err
	}
	if err := savefile.Write(flags.output, data); err != nil {
		return err
	}

	if IsJSONOutput() {
		return writeJSON(out, struct {
			Path   string           `json:"path"`
			Format model.SaveFormat `json:"format"`
			Bytes  int              `json:"bytes"`
		}{Path: flags.output, Format: format, Bytes: len(data)})
	}
	printSuccess(out, "wrote %s (%s, %d bytes)", flags.output, format, len(data))
	return nil
}

// savesFlags holds the flag values for the saves command.
type savesFlags struct {
	// dir overrides the configured save directory.
	dir string
}

// NewSavesCommand creates the "saves" cobra command.
func NewSavesCommand() *cobra.Command {
	flags := &savesFlags{}

	cmd := &cobra.Command{
		Use:   "saves",
		Short: "List save files, newest first",
		Long: `List the .json and .gz files in the save directory, newest first.

The directory is --dir, else saveDir from the config, else the game's
default (Documents/My Games/TerraInvicta/Saves in the home directory).

Examples:
  tise saves
  tise saves --dir ~/backups --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaves(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.dir, "dir", "", "Directory to list")

	return cmd
}

func runSaves(ctx context.Context, out io.Writer, flags *savesFlags) error {
	// Step 1: Resolve the directory (flag > config > game default).
	dir := flags.dir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.SaveDir
	}
	if dir == "" {
		var err error
		if dir, err = savefile.DefaultSaveDir(); err != nil {
			return model.WrapCLIError(model.ExitIOError, "failed to locate the save directory", err)
		}
	}
	loggerFromContext(ctx).Debug("listing saves", "dir", dir)

	// Step 2: List.
	saves, err := savefile.FindSaves(dir)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return writeJSON(out, struct {
			Dir   string           `json:"dir"`
			Saves []savefile.Entry `json:"saves"`
		}{Dir: dir, Saves: append([]savefile.Entry{}, saves...)})
	}

	if len(saves) == 0 {
		printInfo(out, "No saves found in %s", dir)
		return nil
	}
	rows := make([][]string, 0, len(saves))
	for _, e := range saves {
		rows = append(rows, []string{
			e.Name,
			StyleDim.Render(e.ModTime.Local().Format("2006-01-02 15:04")),
			StyleNumber.Render(FormatSize(e.Size)),
		})
	}
	printTable(out, []string{"NAME", "MODIFIED", "SIZE"}, rows)
	return nil
}

// FormatSize renders a byte count with a binary unit, e.g. "12.3 MiB".
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
