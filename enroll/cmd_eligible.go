package main

import (
	"fmt"

	"github.com/finnjohnston/enrollment/planning"
	"github.com/spf13/cobra"
)

func eligibleCmd(opts *options) *cobra.Command {
	var completed, enrolled []string

	cmd := &cobra.Command{
		Use:   "eligible [COURSE...]",
		Short: "Check whether courses can be taken this semester",
		Long: `Checks each named course against the completed and enrolled courses.
Without course arguments, lists every course whose prerequisites are met.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				done, err := a.resolveCodes(splitList(completed))
				if err != nil {
					return err
				}
				current, err := a.resolveCodes(splitList(enrolled))
				if err != nil {
					return err
				}
				eligibility := a.snapshot().Eligibility
				out := cmd.OutOrStdout()

				if len(args) == 0 {
					for _, code := range a.snapshot().Graph.Available(done) {
						if current.Has(code) {
							continue
						}
						if eligibility.IsEligible(code, done, current) {
							fmt.Fprintln(out, code)
						}
					}
					return nil
				}

				for _, code := range args {
					course, err := a.snapshot().Catalog.Lookup(code)
					if err != nil {
						return err
					}
					decision := eligibility.Check(course.Code, done, current)
					status := "eligible"
					if !decision.Eligible {
						status = "not eligible"
					}
					fmt.Fprintf(out, "%s: %s (%s)\n", course.Code, status, decision.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "Completed course codes")
	cmd.Flags().StringSliceVar(&enrolled, "enrolled", nil, "Course codes enrolled in this semester")
	return cmd
}

func recommendCmd(opts *options) *cobra.Command {
	var programs, completed, enrolled []string

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend courses for the unmet requirements of programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				selected, err := a.selectPrograms(splitList(programs))
				if err != nil {
					return err
				}
				done, err := a.resolveCodes(splitList(completed))
				if err != nil {
					return err
				}
				current, err := a.resolveCodes(splitList(enrolled))
				if err != nil {
					return err
				}
				planner := planning.NewSemesterPlanner(a.snapshot().Eligibility, a.logger)
				return writeJSON(cmd.OutOrStdout(), planner.Recommend(selected, done, current, nil))
			})
		},
	}
	cmd.Flags().StringSliceVar(&programs, "program", nil, "Program names (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "Completed course codes")
	cmd.Flags().StringSliceVar(&enrolled, "enrolled", nil, "Course codes enrolled in this semester")
	_ = cmd.MarkFlagRequired("program")
	return cmd
}

func alternativesCmd(opts *options) *cobra.Command {
	var programs, completed, enrolled []string

	cmd := &cobra.Command{
		Use:   "alternatives COURSE",
		Short: "Show what a course counts toward and what else could count instead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				selected, err := a.selectPrograms(splitList(programs))
				if err != nil {
					return err
				}
				course, err := a.snapshot().Catalog.Lookup(args[0])
				if err != nil {
					return err
				}
				done, err := a.resolveCodes(splitList(completed))
				if err != nil {
					return err
				}
				current, err := a.resolveCodes(splitList(enrolled))
				if err != nil {
					return err
				}

				categories := []string{}
				for _, key := range planning.SatisfiedCategories(course, selected) {
					categories = append(categories, key.String())
				}
				alternatives := []string{}
				for _, alternative := range planning.Alternatives(course, selected, done, current, a.snapshot().Eligibility) {
					alternatives = append(alternatives, alternative.Code)
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					Course       string   `json:"course"`
					Satisfies    []string `json:"satisfies"`
					Alternatives []string `json:"alternatives"`
				}{course.Code, categories, alternatives})
			})
		},
	}
	cmd.Flags().StringSliceVar(&programs, "program", nil, "Program names (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "Completed course codes")
	cmd.Flags().StringSliceVar(&enrolled, "enrolled", nil, "Course codes enrolled in this semester")
	_ = cmd.MarkFlagRequired("program")
	return cmd
}

func unlockedCmd(opts *options) *cobra.Command {
	var programs, completed []string

	cmd := &cobra.Command{
		Use:   "unlocked",
		Short: "List unmet requirements whose courses can all be taken now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				selected, err := a.selectPrograms(splitList(programs))
				if err != nil {
					return err
				}
				done, err := a.resolveCodes(splitList(completed))
				if err != nil {
					return err
				}
				unlocked := planning.UnlockedRequirements(selected, done, a.snapshot().Graph)
				described := make(map[planning.Key][]string, len(unlocked))
				for key, requirements := range unlocked {
					for _, r := range requirements {
						described[key] = append(described[key], r.Describe())
					}
				}
				return writeJSON(cmd.OutOrStdout(), described)
			})
		},
	}
	cmd.Flags().StringSliceVar(&programs, "program", nil, "Program names (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "Completed course codes")
	_ = cmd.MarkFlagRequired("program")
	return cmd
}
