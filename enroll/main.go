// Command enroll answers course planning questions: prerequisite graph
// queries, eligibility, recommendations, and persistent student plans.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/finnjohnston/enrollment/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	catalog    string
	programs   string
	policies   string
	storePath  string
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "enroll",
		Short:         "Plan courses against prerequisites and degree requirements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML, default "+config.DefaultFile+" when present)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.catalog, "catalog", "", "Course catalog file (JSON or YAML)")
	flags.StringVar(&opts.programs, "programs", "", "Program definitions file (JSON or YAML)")
	flags.StringVar(&opts.policies, "policies", "", "Overlap policy file (JSON or YAML)")
	flags.StringVar(&opts.storePath, "store", "", "Plan store directory")

	cmd.AddCommand(
		graphCmd(opts),
		eligibleCmd(opts),
		recommendCmd(opts),
		alternativesCmd(opts),
		unlockedCmd(opts),
		planCmd(opts),
		importCmd(opts),
		watchCmd(opts),
	)
	return cmd
}

// loadConfig layers command line flags over the configuration file.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Merge(&config.Config{
		Sources: config.SourcesConfig{Catalog: o.catalog, Programs: o.programs, Policies: o.policies},
		Store:   config.StoreConfig{Path: o.storePath},
		Log:     config.LogConfig{Level: o.logLevel},
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp loads the configuration, builds the app and runs fn with it.
func (o *options) withApp(ctx context.Context, fn func(*app) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, cfg.Logger())
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func splitList(values []string) []string {
	var items []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
