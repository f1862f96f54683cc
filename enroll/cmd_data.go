package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/db"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
	"github.com/finnjohnston/enrollment/snapshot"
	"github.com/spf13/cobra"
)

func importCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load the catalog, program and policy files into PostgreSQL",
		Long: `Reads the configured source files, validates them, and writes them to the
database named by DATABASE_CONNECTION_STRING or database.connection_string.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.ConnectionString == "" {
				return errs.Configuration("import needs a database connection string")
			}
			logger := cfg.Logger()
			ctx := cmd.Context()

			records, err := catalog.FileSource{Path: cfg.Sources.Catalog}.Records(ctx)
			if err != nil {
				return err
			}
			if _, err := catalog.FromRecords(records); err != nil {
				return err
			}
			var programs []requirement.ProgramSpec
			if cfg.Sources.Programs != "" {
				if programs, err = (requirement.FileSource{Path: cfg.Sources.Programs}).ProgramSpecs(ctx); err != nil {
					return err
				}
			}
			var policies []policy.Policy
			if cfg.Sources.Policies != "" {
				if policies, err = policy.LoadPolicies(cfg.Sources.Policies); err != nil {
					return err
				}
				if _, err := policy.NewEngine(policies, nil); err != nil {
					return err
				}
			}

			database, err := db.Open(ctx, cfg.Database.ConnectionString)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(ctx); err != nil {
				return err
			}
			if err := database.InsertCourses(ctx, records); err != nil {
				return fmt.Errorf("failed to import courses: %w", err)
			}
			if err := database.InsertPrograms(ctx, programs); err != nil {
				return fmt.Errorf("failed to import programs: %w", err)
			}
			if err := database.ReplacePolicies(ctx, policies); err != nil {
				return fmt.Errorf("failed to import policies: %w", err)
			}
			logger.Info("Imported planning data",
				slog.Int("courses", len(records)),
				slog.Int("programs", len(programs)),
				slog.Int("policies", len(policies)))
			return nil
		},
	}
}

func watchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the catalog whenever its file changes",
		Long: `Keeps the catalog snapshot current while the file is edited, logging every
reload together with any requisite cycles. Stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Enabled {
				return errs.Configuration("watch only follows catalog files, not the database")
			}
			logger := cfg.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			holder := snapshot.NewHolder(catalog.FileSource{Path: cfg.Sources.Catalog}, cfg.Planning.Eligibility, logger,
				graph.WithPathLimit(cfg.Planning.PathLimit))
			holder.OnReload(func(s *snapshot.Snapshot) {
				stats := s.Graph.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "snapshot %d: %d courses, %d edges\n", s.Version, stats.Nodes, stats.Edges)
			})
			if _, err := holder.Reload(ctx); err != nil {
				return err
			}
			return holder.Watch(ctx, []string{cfg.Sources.Catalog}, cfg.Sources.WatchDebounce)
		},
	}
}
