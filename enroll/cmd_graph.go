package main

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/graph"
	"github.com/spf13/cobra"
)

func graphCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Query the course dependency graph",
	}

	var (
		all        bool
		dependents bool
	)
	prereqs := &cobra.Command{
		Use:   "requisites COURSE",
		Short: "Show the prerequisite and corequisite rules of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				g := a.snapshot().Graph
				course, err := a.snapshot().Catalog.Lookup(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, course)
				fmt.Fprintf(out, "  prerequisites: %s\n", orNone(g.PrerequisiteLogic(course.Code).String()))
				fmt.Fprintf(out, "  corequisites:  %s\n", orNone(g.CorequisiteLogic(course.Code).String()))
				switch {
				case all:
					fmt.Fprintf(out, "  all prerequisites: %s\n", orNone(strings.Join(g.AllPrerequisites(course.Code), ", ")))
				case dependents:
					fmt.Fprintf(out, "  unlocks: %s\n", orNone(strings.Join(g.Dependents(course.Code), ", ")))
				}
				return nil
			})
		},
	}
	prereqs.Flags().BoolVar(&all, "all", false, "Also list every transitive prerequisite")
	prereqs.Flags().BoolVar(&dependents, "dependents", false, "Also list the courses this one unlocks")

	var shortest, critical bool
	paths := &cobra.Command{
		Use:   "paths COURSE",
		Short: "Enumerate the requisite paths leading to a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				g := a.snapshot().Graph
				course, err := a.snapshot().Catalog.Lookup(args[0])
				if err != nil {
					return err
				}
				var result [][]string
				switch {
				case shortest:
					result = [][]string{g.ShortestPath(course.Code)}
				case critical:
					result = [][]string{g.CriticalPath(course.Code)}
				default:
					result = g.RequisitePaths(course.Code)
				}
				for _, path := range result {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(path, " -> "))
				}
				return nil
			})
		},
	}
	paths.Flags().BoolVar(&shortest, "shortest", false, "Only the path with the fewest courses")
	paths.Flags().BoolVar(&critical, "critical", false, "Only the longest path")

	var every bool
	between := &cobra.Command{
		Use:   "between FROM TO",
		Short: "Show a dependency chain from one course to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				g := a.snapshot().Graph
				chains := [][]string{g.PathBetween(args[0], args[1])}
				if every {
					chains = g.PathsBetween(args[0], args[1])
				}
				if len(chains) == 0 || len(chains[0]) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s does not lead to %s\n", args[0], args[1])
					return nil
				}
				for _, path := range chains {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(path, " -> "))
				}
				return nil
			})
		},
	}
	between.Flags().BoolVar(&every, "all", false, "Every chain instead of a shortest one")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the graph, its bottlenecks and cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				g := a.snapshot().Graph
				return writeJSON(cmd.OutOrStdout(), struct {
					graph.Stats
					Bottlenecks []string   `json:"bottlenecks"`
					Cycles      [][]string `json:"cycles"`
				}{g.Stats(), g.Bottlenecks(), g.DetectCycles()})
			})
		},
	}

	dot := &cobra.Command{
		Use:   "dot",
		Short: "Print the graph in Graphviz format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				_, err := fmt.Fprint(cmd.OutOrStdout(), a.snapshot().Graph.DOT())
				return err
			})
		},
	}

	cmd.AddCommand(prereqs, paths, between, stats, dot)
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
