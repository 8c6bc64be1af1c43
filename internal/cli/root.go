// Package cli implements the cobra-based CLI commands for tise.
//
// Each subcommand (groups, list, find, show, get, set, ref, fmt, check, saves) is
// defined in its own file within this package. This file defines the root
// command that serves as the parent for all subcommands and handles global
// flags, configuration, logging and exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/tise/internal/config"
	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/session"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose lowers the log level from warn to debug.
	verbose bool

	// configPath overrides the config file location.
	configPath string

	// savePath is the save file most commands operate on.
	savePath string
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action; it only provides
// help text and global flags. Actual functionality is provided by
// subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tise",
		Short: "Inspect and edit Terra Invicta save files",
		Long: `tise reads Terra Invicta save files (plain or gzip-compressed JSON),
lets you browse entities by group, follow references between them and edit
single properties.

Saves are written back in the game's own formatting, so an edit changes only
the lines it touches. An unmodified save is never rewritten.`,

		// We format errors ourselves (text or JSON based on --json flag).
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// Every subcommand gets a logger in its context.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.WarnLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVarP(&savePath, "file", "f", "", "Save file to operate on (.json or .gz)")

	rootCmd.AddCommand(NewGroupsCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewFindCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewSetCommand())
	rootCmd.AddCommand(NewRefCommand())
	rootCmd.AddCommand(NewFmtCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewSavesCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		code := exitCode(err)
		printError(os.Stderr, err)
		os.Exit(int(code))
	}
}

// exitCode picks the process exit code for err. A CLIError carries its
// own code; document errors map through their kind; everything else is a
// general error.
func exitCode(err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitCodeFor(err)
}

// printError outputs an error in the appropriate format (JSON or text)
// based on the --json global flag.
func printError(w io.Writer, err error) {
	message, detail := err.Error(), ""
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
			"code":    int(exitCode(err)),
		}
		if detail != "" {
			errObj["detail"] = detail
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if detail != "" {
		fmt.Fprintf(w, "%s %s: %s\n", styleIconError.Render(iconError), message, detail)
		return
	}
	fmt.Fprintf(w, "%s %s\n", styleIconError.Render(iconError), message)
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig resolves the configuration layers for the current invocation.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, model.WrapCLIError(model.ExitGeneralError, "failed to load configuration", err)
	}
	return cfg, nil
}

// openSession opens path, or the --file save when path is empty.
func openSession(ctx context.Context, path string) (*session.Session, error) {
	if path == "" {
		path = savePath
	}
	if path == "" {
		return nil, model.NewCLIError(model.ExitGeneralError,
			"no save file given (use --file or -f)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.Open(path, cfg, loggerFromContext(ctx))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
