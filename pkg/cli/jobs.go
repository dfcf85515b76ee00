package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	jobsLimit  int
	jobsOutput string
)

// NewJobsCmd creates the jobs command with subcommands
func NewJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse the local job history",
		Long: `Browse the jobs started from this machine.

The history is local, jobs started elsewhere do not appear here.`,
	}

	// Add subcommands
	jobsCmd.AddCommand(NewJobsListCmd())
	jobsCmd.AddCommand(NewJobsShowCmd())

	return jobsCmd
}

// NewJobsListCmd creates the jobs list command
func NewJobsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			store, err := openHistory(profile)
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.List(jobsLimit)
			if err != nil {
				return err
			}

			format, err := ParseFormat(jobsOutput)
			if err != nil {
				return err
			}
			if format != OutputFormatConsole {
				return printAs(format, jobs)
			}

			if len(jobs) == 0 {
				fmt.Println("No jobs recorded yet")
				return nil
			}
			for _, j := range jobs {
				fmt.Printf("%s %s  %s -> %s  %-20s %s\n",
					statusGlyph(j.Status), j.ID, j.Source, j.Target, j.Status,
					j.StartedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to list")
	cmd.Flags().StringVarP(&jobsOutput, "output", "o", "console", "Output format (console, json, yaml)")

	return cmd
}

// NewJobsShowCmd creates the jobs show command
func NewJobsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			store, err := openHistory(profile)
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := store.Get(args[0])
			if err != nil {
				return err
			}

			format, err := ParseFormat(jobsOutput)
			if err != nil {
				return err
			}
			if format != OutputFormatConsole {
				return printAs(format, job)
			}

			fmt.Printf("Job:      %s\n", job.ID)
			fmt.Printf("Status:   %s %s\n", statusGlyph(job.Status), job.Status)
			if job.Reason != "" {
				fmt.Printf("Reason:   %s\n", job.Reason)
			}
			fmt.Printf("Project:  %s\n", job.Project)
			fmt.Printf("Versions: %s -> %s\n", job.Source, job.Target)
			fmt.Printf("Started:  %s\n", job.StartedAt.Format("2006-01-02 15:04:05"))
			if !job.EndedAt.IsZero() {
				fmt.Printf("Ended:    %s\n", job.EndedAt.Format("2006-01-02 15:04:05"))
			}
			if job.WorkDir != "" {
				fmt.Printf("Work dir: %s\n", job.WorkDir)
			}
			if job.Artifact != "" {
				fmt.Printf("Artifact: %s\n", job.Artifact)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobsOutput, "output", "o", "console", "Output format (console, json, yaml)")

	return cmd
}
