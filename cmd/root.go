// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/data-desk-eco/notebook-index/internal/config"
	"github.com/data-desk-eco/notebook-index/internal/domain"
	"github.com/data-desk-eco/notebook-index/internal/output"
)

// Exit codes let a scheduler tell retryable failures from fatal ones.
const (
	exitFailure        = 1
	exitAuthentication = 2
	exitUpstream       = 3
	exitStorage        = 4
)

var (
	cfg *viper.Viper
	ui  = output.New()
)

var rootCmd = &cobra.Command{
	Use:   "notebook-index",
	Short: "Refreshes the table of published research notebooks.",
	Long: `notebook-index lists the repositories of a GitHub organization, keeps the
public ones that publish a Pages site and carry a description, and replaces
the "projects" table of an embedded database file with them. The index site
reads that table when it is built.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		v, err := config.New(cfgFile)
		if err != nil {
			return err
		}
		if flag := cmd.Flags().Lookup("db"); flag != nil {
			if err := v.BindPFlag(config.KeyDBPath, flag); err != nil {
				return err
			}
		}
		if flag := cmd.Flags().Lookup("org"); flag != nil {
			if err := v.BindPFlag(config.KeyOrg, flag); err != nil {
				return err
			}
		}
		cfg = v
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error("Error: %v", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return exitAuthentication
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return exitUpstream
	case errors.Is(err, domain.ErrStorageWrite):
		return exitStorage
	default:
		return exitFailure
	}
}

// newLogger discards all progress lines unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./notebook-index.yaml)")
}
