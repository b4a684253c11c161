package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/data-desk-eco/notebook-index/internal/config"
	"github.com/data-desk-eco/notebook-index/internal/store"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Prints the projects table as the index site will see it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(cfg)
		if err != nil {
			return err
		}

		projects, err := store.Open(settings.DBPath)
		if err != nil {
			return err
		}
		defer projects.Close()

		records, err := projects.List(cmd.Context())
		if errors.Is(err, store.ErrTableMissing) {
			return fmt.Errorf("%s has no projects table yet; run `notebook-index refresh` first", settings.DBPath)
		}
		if err != nil {
			return err
		}

		ui.Success("Read %d projects from %s (%s)", len(records), projects.Path(), projects.Driver())
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return ui.JSON(records)
		}
		return ui.Projects(records)
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.Flags().String("db", "", "Database file to read (default projects.duckdb)")
	projectsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
