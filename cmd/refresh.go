package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/data-desk-eco/notebook-index/internal/config"
	"github.com/data-desk-eco/notebook-index/internal/domain"
	"github.com/data-desk-eco/notebook-index/internal/gateway"
	"github.com/data-desk-eco/notebook-index/internal/store"
	"github.com/data-desk-eco/notebook-index/internal/usecase"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Collects publishable repositories and replaces the projects table",
	Long: `Fetches every repository of the organization, keeps the publishable ones and
replaces the projects table in one transaction. On failure the previous table
stays in place. The run summary is printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		settings, err := config.Load(cfg)
		if err != nil {
			return err
		}

		githubGateway, err := gateway.NewGitHubGateway(settings.Token, settings.PageConcurrency, logger, gateway.WithBaseURL(settings.APIURL))
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}

		projects, err := store.Open(settings.DBPath)
		if err != nil {
			return err
		}
		defer projects.Close()

		rule := domain.NewPublishRule(settings.SiteURL, settings.ExcludeRepo)
		collector := usecase.NewCollector(githubGateway, rule, logger)
		refresher := usecase.NewRefresher(collector, projects, settings.Org, logger)

		summary, err := refresher.Refresh(ctx)
		if err != nil {
			return err
		}
		// The table is committed at this point; a failing close does not undo the run.
		if err := projects.Close(); err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("close %s: %v", settings.DBPath, err))
		}

		ui.Success("Published %d of %d repositories to %s", summary.Published, summary.Fetched, settings.DBPath)
		for _, w := range summary.Warnings {
			ui.Warning("%s", w)
		}
		return ui.JSON(summary)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().StringP("org", "o", "", "GitHub organization (default data-desk-eco)")
	refreshCmd.Flags().String("db", "", "Database file; .db/.sqlite selects SQLite, anything else DuckDB (default projects.duckdb)")
}
