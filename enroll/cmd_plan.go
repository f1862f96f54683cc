package main

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/planning"
	"github.com/finnjohnston/enrollment/store"
	"github.com/spf13/cobra"
)

func planCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create and update saved student plans",
	}

	cmd.AddCommand(
		planNewCmd(opts),
		planListCmd(opts),
		planShowCmd(opts),
		planDeleteCmd(opts),
		planCompleteCmd(opts),
		planEnrollCmd(opts),
		planDropCmd(opts),
		planAssignCmd(opts),
		planAdvanceCmd(opts),
		planRecommendCmd(opts),
		planValidateCmd(opts),
		planScheduleCmd(opts),
	)
	return cmd
}

// withStore runs fn with the app and an open plan store.
func (o *options) withStore(cmd *cobra.Command, fn func(*app, *store.PlanStore) error) error {
	return o.withApp(cmd.Context(), func(a *app) error {
		plans, err := a.openStore()
		if err != nil {
			return err
		}
		defer plans.Close()
		return fn(a, plans)
	})
}

// withPlan loads the plan named by id, runs fn and saves the plan when fn
// changed it.
func (o *options) withPlan(cmd *cobra.Command, id string, fn func(*app, *planning.Plan) error) error {
	return o.withStore(cmd, func(a *app, plans *store.PlanStore) error {
		plan, err := a.loadPlan(plans, id)
		if err != nil {
			return err
		}
		version := plan.Version()
		if err := fn(a, plan); err != nil {
			return err
		}
		if plan.Version() == version {
			return nil
		}
		return plans.Save(plan.Snapshot())
	})
}

func planNewCmd(opts *options) *cobra.Command {
	var programs []string
	var semester string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a plan and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := planning.ParseSemester(semester)
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(a *app, plans *store.PlanStore) error {
				selected, err := a.selectPrograms(splitList(programs))
				if err != nil {
					return err
				}
				plan := planning.NewPlan(a.environment(), selected, start)
				if err := plans.Save(plan.Snapshot()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), plan.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&programs, "program", nil, "Program names (repeatable or comma separated)")
	cmd.Flags().StringVar(&semester, "semester", "", `Starting semester, for example "Fall 2025"`)
	_ = cmd.MarkFlagRequired("program")
	_ = cmd.MarkFlagRequired("semester")
	return cmd
}

func planListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(a *app, plans *store.PlanStore) error {
				ids, err := plans.List()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func planShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show PLAN",
		Short: "Show a plan's progress toward its programs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				return writeJSON(cmd.OutOrStdout(), struct {
					ID          string                         `json:"id"`
					Progress    planning.Progress              `json:"progress"`
					Assignments map[string]map[string][]string `json:"assignments"`
				}{plan.ID(), plan.Progress(), plan.Summary()})
			})
		},
	}
}

func planDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PLAN",
		Short: "Delete a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(a *app, plans *store.PlanStore) error {
				return plans.Delete(args[0])
			})
		},
	}
}

func planCompleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "complete PLAN COURSE...",
		Short: "Record courses as completed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				return plan.AddCompleted(args[1:]...)
			})
		},
	}
}

func planEnrollCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll PLAN COURSE",
		Short: "Enroll in a course for the plan's current semester",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				decision, err := plan.Enroll(args[1])
				if err != nil {
					return err
				}
				if !decision.Eligible {
					return fmt.Errorf("cannot enroll in %s: %s", args[1], decision.Reason)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enrolled in %s for %s\n", args[1], plan.Semester())
				return nil
			})
		},
	}
}

func planDropCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "drop PLAN COURSE",
		Short: "Remove a course from the plan and its assignments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				if !plan.RemoveCourse(args[1]) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not in the plan\n", args[1])
				}
				return nil
			})
		},
	}
}

func planAssignCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign PLAN COURSE PROGRAM CATEGORY",
		Short: "Count a completed course toward a program category",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				selected, err := a.selectPrograms(args[2:3])
				if err != nil {
					return err
				}
				outcome, err := plan.AssignCourse(args[1], selected[0].Name, args[3])
				if err != nil {
					return err
				}
				if err := outcome.Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s / %s\n", args[1], selected[0].Name, args[3])
				return nil
			})
		},
	}
}

func planAdvanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "advance PLAN",
		Short: "Complete the enrolled courses and move to the next semester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				fmt.Fprintln(cmd.OutOrStdout(), plan.AdvanceSemester())
				return nil
			})
		},
	}
}

func planRecommendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend PLAN",
		Short: "Recommend courses for the plan's current semester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				recommendations, err := plan.Recommendations()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), recommendations)
			})
		},
	}
}

func planValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PLAN",
		Short: "Check the plan's assignments against the overlap policies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				result := plan.Validate()
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.IsValid {
					return fmt.Errorf("plan %s violates %d policy rule(s)", plan.ID(), len(result.Errors))
				}
				return nil
			})
		},
	}
}

func planScheduleCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Lay out courses over the semesters of a plan",
	}

	show := &cobra.Command{
		Use:   "show PLAN",
		Short: "Show the planned courses term by term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				printTerms(cmd, plan.Schedule())
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add PLAN SEMESTER COURSE...",
		Short: `Plan courses for a semester such as "Spring 2026"`,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			semester, err := planning.ParseSemester(args[1])
			if err != nil {
				return err
			}
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				return plan.PlanTerm(semester, args[2:]...)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove PLAN SEMESTER COURSE",
		Short: "Take a course off a semester",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			semester, err := planning.ParseSemester(args[1])
			if err != nil {
				return err
			}
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				if !plan.Unplan(semester, args[2]) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not planned for %s\n", args[2], semester)
				}
				return nil
			})
		},
	}

	clearTerm := &cobra.Command{
		Use:   "clear PLAN SEMESTER",
		Short: "Remove every course planned for a semester",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			semester, err := planning.ParseSemester(args[1])
			if err != nil {
				return err
			}
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				plan.ClearTerm(semester)
				return nil
			})
		},
	}

	var apply bool
	draft := &cobra.Command{
		Use:   "draft PLAN",
		Short: "Propose a term-by-term schedule for the remaining program courses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPlan(cmd, args[0], func(a *app, plan *planning.Plan) error {
				terms := plan.DraftSchedule()
				printTerms(cmd, terms)
				if !apply {
					return nil
				}
				for _, term := range terms {
					if err := plan.PlanTerm(term.Semester, term.Courses...); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	draft.Flags().BoolVar(&apply, "apply", false, "Save the proposal as the plan's schedule")

	cmd.AddCommand(show, add, remove, clearTerm, draft)
	return cmd
}

func printTerms(cmd *cobra.Command, terms []planning.Term) {
	out := cmd.OutOrStdout()
	if len(terms) == 0 {
		fmt.Fprintln(out, "nothing planned")
		return
	}
	for _, term := range terms {
		fmt.Fprintf(out, "%s: %s\n", term.Semester, strings.Join(term.Courses, ", "))
	}
}
