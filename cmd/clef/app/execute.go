package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coecms/clef/cmd/clef/cmd/query"
	"github.com/coecms/clef/internal/cmd/output"
)

// Execute runs the clef CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "clef",
		Short:   "Find CMIP and CORDEX data on ESGF and in the local collection",
		Version: a.version,
		Long: `clef searches the ESGF catalog and the local file inventory and
reports which published files are already held locally, which are
missing, and which have already been requested for download.

By default both are searched. Use --remote to search ESGF only, --local
to search the inventory only, --missing to list only what is not held
locally, and --request to also write a download request.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.SetOut(a.out)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "search",
		Title: "Search Commands:",
	})

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.clef.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "debug output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().Bool("verbose", false, "same as --debug")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: plain, table, wide, json, yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides --debug/-q)")
	query.AddFlowFlags(rootCmd.PersistentFlags())

	rootCmd.SetVersionTemplate("clef {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	verbose := mustGetBool(cmd, "verbose") || mustGetBool(cmd, "debug")
	quiet := mustGetBool(cmd, "quiet")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	if _, err := output.ParseFormat(format); err != nil {
		return err
	}
	if cmd.Flags().Changed("config") {
		config, err := loadConfig(viper.New(), a.config.ConfigFile)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(verbose, quiet, format, logLevel)
	a.config.DatabaseDebug = a.config.DatabaseDebug || mustGetBool(cmd, "debug")

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	for _, project := range []string{"CMIP5", "CMIP6", "CORDEX"} {
		cmd := query.NewCommand(a, project)
		cmd.GroupID = "search"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ExitOnError prints the error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
