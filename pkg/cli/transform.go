package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/upshift-tools/upshift/pkg/config"
	"github.com/upshift-tools/upshift/pkg/patch"
	"github.com/upshift-tools/upshift/pkg/transform"
)

var (
	transformWatch  bool
	transformOutput string
	resultPreview   bool
	resultApply     bool
)

// NewTransformCmd creates the transform command with subcommands
func NewTransformCmd() *cobra.Command {
	transformCmd := &cobra.Command{
		Use:   "transform",
		Short: "Run and inspect transformation jobs",
	}

	// Add subcommands
	transformCmd.AddCommand(NewTransformStartCmd())
	transformCmd.AddCommand(NewTransformStatusCmd())
	transformCmd.AddCommand(NewTransformPlanCmd())
	transformCmd.AddCommand(NewTransformStopCmd())
	transformCmd.AddCommand(NewTransformResultCmd())

	return transformCmd
}

// NewTransformStartCmd creates the transform start command
func NewTransformStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [spec-file]",
		Short: "Package the project and start a transformation job",
		Long: `Package the project described by the spec file, upload it, and start
a remote transformation job.

By default the command follows the job until it finishes and downloads
the result. Use --watch=false to only submit the job.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specFile := "upshift.yaml"
			if len(args) == 1 {
				specFile = args[0]
			}

			spec, err := config.LoadTransformSpec(specFile)
			if err != nil {
				return err
			}

			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}
			store, err := openHistory(profile)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := &transform.Runner{Client: api, History: store, Profile: profile.Name}

			started, err := runner.Start(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Printf("Job started: %s\n", started.Job.ID)

			if !transformWatch {
				fmt.Printf("Follow it with: upshift transform status %s\n", started.Job.ID)
				return nil
			}

			result, err := runner.Watch(cmd.Context(), started)
			if err != nil {
				return err
			}
			printRunResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&transformWatch, "watch", true, "Follow the job until it finishes")

	return cmd
}

func printRunResult(result *transform.Result) {
	switch result.Status {
	case transform.StatusPartiallyCompleted:
		color.Yellow("⊘ Job %s partially completed in %s", result.JobID, result.Duration.Round(time.Second))
		fmt.Println("  Some changes could not be made automatically, review the plan")
	default:
		color.Green("✓ Job %s completed in %s", result.JobID, result.Duration.Round(time.Second))
	}
	fmt.Printf("  Plan:     %s\n", result.PlanPath)
	fmt.Printf("  Artifact: %s\n", result.Artifact)
	fmt.Printf("\nInspect the changes with: upshift transform result %s --preview\n", result.JobID)
}

// NewTransformStatusCmd creates the transform status command
func NewTransformStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}

			job, err := api.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format, err := ParseFormat(transformOutput)
			if err != nil {
				return err
			}
			if format != OutputFormatConsole {
				return printAs(format, job)
			}

			fmt.Printf("%s %s  %s", statusGlyph(job.Status), job.ID, job.Status)
			if job.Reason != "" {
				fmt.Printf("  (%s)", job.Reason)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&transformOutput, "output", "o", "console", "Output format (console, json, yaml)")

	return cmd
}

// NewTransformPlanCmd creates the transform plan command
func NewTransformPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <job-id>",
		Short: "Show the transformation plan of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}

			plan, err := api.GetPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format, err := ParseFormat(transformOutput)
			if err != nil {
				return err
			}
			if format != OutputFormatConsole {
				return printAs(format, plan)
			}

			fmt.Printf("Plan for job %s (%d steps):\n", plan.JobID, len(plan.Steps))
			for i, step := range plan.Steps {
				fmt.Printf("%3d. %s", i+1, step.Name)
				if step.Status != "" {
					fmt.Printf("  [%s]", step.Status)
				}
				fmt.Println()
				if step.Description != "" {
					fmt.Printf("       %s\n", step.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&transformOutput, "output", "o", "console", "Output format (console, json, yaml)")

	return cmd
}

// NewTransformStopCmd creates the transform stop command
func NewTransformStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <job-id>",
		Short: "Request a job to stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}

			if err := api.StopJob(cmd.Context(), args[0]); err != nil {
				return err
			}

			color.Yellow("⊘ Stop requested for job %s", args[0])
			return nil
		},
	}
}

// NewTransformResultCmd creates the transform result command
func NewTransformResultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Inspect or apply the result of a finished job",
		Long: `Download and extract the result of a finished job.

--preview shows the pending changes as unified diffs, --apply writes
them into the project. Without either flag the change summary is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]

			profile, err := activeProfile()
			if err != nil {
				return err
			}
			store, err := openHistory(profile)
			if err != nil {
				return err
			}
			defer store.Close()

			row, err := store.Get(jobID)
			if err != nil {
				return err
			}
			if !transform.SucceededStates.Contains(row.Status) {
				return fmt.Errorf("job %s is %s, no result to inspect", jobID, row.Status)
			}

			artifact := row.Artifact
			if artifact == "" {
				artifact = filepath.Join(row.WorkDir, transform.ResultDir, transform.ArtifactFile)
			}
			if _, err := os.Stat(artifact); err != nil {
				// The artifact was cleaned up, fetch it again
				api, err := newClient(profile)
				if err != nil {
					return err
				}
				dl, err := api.CreateArtifactDownload(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				if err := api.DownloadArtifact(cmd.Context(), dl, artifact); err != nil {
					return err
				}
			}

			resultDir := filepath.Join(row.WorkDir, transform.ResultDir, "files")
			files, err := patch.Extract(artifact, resultDir)
			if err != nil {
				return err
			}

			switch {
			case resultApply:
				applied, err := patch.Apply(row.Project, resultDir)
				if err != nil {
					return err
				}
				color.Green("✓ Applied %d file(s) to %s", applied, row.Project)
			case resultPreview:
				preview, err := patch.BuildPreview(row.Project, resultDir)
				if err != nil {
					return err
				}
				printPreview(preview)
			default:
				summary, err := patch.Summary(resultDir)
				if err != nil {
					return err
				}
				if summary != "" {
					fmt.Println(summary)
				}
				fmt.Printf("Result of job %s: %d file(s) in %s\n", jobID, len(files), resultDir)
				fmt.Printf("\nShow diffs with:  upshift transform result %s --preview\n", jobID)
				fmt.Printf("Apply them with:  upshift transform result %s --apply\n", jobID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resultPreview, "preview", false, "Show pending changes as unified diffs")
	cmd.Flags().BoolVar(&resultApply, "apply", false, "Write the changes into the project")
	cmd.MarkFlagsMutuallyExclusive("preview", "apply")

	return cmd
}

func printPreview(preview *patch.Preview) {
	if len(preview.Files) == 0 {
		fmt.Println("No changes, the project already matches the result")
		return
	}
	for _, fd := range preview.Files {
		switch fd.Status {
		case patch.FileAdded:
			color.Green("+ %s (new file)", fd.Path)
		default:
			color.Cyan("~ %s", fd.Path)
		}
		fmt.Println(fd.Diff)
	}
	fmt.Printf("%d added, %d modified\n", preview.Added, preview.Modified)
}
