package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/upshift-tools/upshift/pkg/client"
	"github.com/upshift-tools/upshift/pkg/config"
)

var (
	workspaceSettingsFile string
	workspaceOutput       string
	workspaceAlias        string
	workspaceInstanceType string
	workspaceStorage      int
	workspaceInactivity   int
)

// NewWorkspaceCmd creates the workspace command with subcommands
func NewWorkspaceCmd() *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage remote development workspaces",
	}

	// Add subcommands
	workspaceCmd.AddCommand(NewWorkspaceListCmd())
	workspaceCmd.AddCommand(NewWorkspaceShowCmd())
	workspaceCmd.AddCommand(NewWorkspaceCreateCmd())
	workspaceCmd.AddCommand(NewWorkspaceUpdateCmd())
	workspaceCmd.AddCommand(NewWorkspaceStopCmd())

	return workspaceCmd
}

// NewWorkspaceListCmd creates the workspace list command
func NewWorkspaceListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}

			workspaces, err := api.ListWorkspaces(cmd.Context())
			if err != nil {
				return err
			}

			format, err := ParseFormat(workspaceOutput)
			if err != nil {
				return err
			}
			if format != OutputFormatConsole {
				return printAs(format, workspaces)
			}

			if len(workspaces) == 0 {
				fmt.Println("No workspaces")
				return nil
			}
			for _, ws := range workspaces {
				fmt.Printf("%s %s  %s  %s  %dGiB  %s\n",
					statusGlyph(ws.Status), ws.ID, ws.Alias, ws.InstanceType, ws.StorageGiB, ws.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceOutput, "output", "o", "console", "Output format (console, json, yaml)")

	return cmd
}

// NewWorkspaceShowCmd creates the workspace show command
func NewWorkspaceShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <workspace-id>",
		Short: "Show one workspace",
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

			ws, err := api.GetWorkspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format, err := ParseFormat(workspaceOutput)
			if err != nil {
				return err
			}
			if format != OutputFormatConsole {
				return printAs(format, ws)
			}

			fmt.Printf("Workspace: %s\n", ws.ID)
			fmt.Printf("Alias:     %s\n", ws.Alias)
			fmt.Printf("Status:    %s %s\n", statusGlyph(ws.Status), ws.Status)
			fmt.Printf("Instance:  %s\n", ws.InstanceType)
			fmt.Printf("Storage:   %dGiB\n", ws.StorageGiB)
			if ws.InactivityTimeoutMinutes > 0 {
				fmt.Printf("Auto-stop: after %dm idle\n", ws.InactivityTimeoutMinutes)
			} else {
				fmt.Println("Auto-stop: disabled")
			}
			if ws.Repository != "" {
				fmt.Printf("Repo:      %s\n", ws.Repository)
			}
			if !ws.CreatedAt.IsZero() {
				fmt.Printf("Created:   %s\n", ws.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceOutput, "output", "o", "console", "Output format (console, json, yaml)")

	return cmd
}

// NewWorkspaceCreateCmd creates the workspace create command
func NewWorkspaceCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace",
		Long: `Create a workspace from a settings file or from flags.

Settings files are created with 'upshift configure workspace'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var settings *config.WorkspaceSettings
			var err error

			switch {
			case workspaceSettingsFile != "":
				settings, err = config.LoadWorkspaceSettings(workspaceSettingsFile)
				if err != nil {
					return err
				}
			case workspaceAlias != "":
				settings = &config.WorkspaceSettings{
					Alias:                    workspaceAlias,
					InstanceType:             workspaceInstanceType,
					StorageGiB:               workspaceStorage,
					InactivityTimeoutMinutes: workspaceInactivity,
				}
				if err := config.ValidateWorkspaceSettings(settings); err != nil {
					return err
				}
			default:
				return fmt.Errorf("provide --settings or --alias")
			}

			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}

			ws, err := api.CreateWorkspace(cmd.Context(), client.CreateWorkspaceRequest{
				Alias:                    settings.Alias,
				InstanceType:             settings.InstanceType,
				StorageGiB:               settings.StorageGiB,
				InactivityTimeoutMinutes: settings.InactivityTimeoutMinutes,
			})
			if err != nil {
				return err
			}

			color.Green("✓ Workspace created: %s (%s)", ws.ID, ws.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceSettingsFile, "settings", "s", "", "Path to a workspace settings file")
	cmd.Flags().StringVar(&workspaceAlias, "alias", "", "Workspace alias")
	cmd.Flags().StringVar(&workspaceInstanceType, "instance-type", "dev.standard1.small", "Instance type")
	cmd.Flags().IntVar(&workspaceStorage, "storage", 16, "Storage in GiB (16-64)")
	cmd.Flags().IntVar(&workspaceInactivity, "inactivity", 60, "Inactivity timeout in minutes, 0 disables auto-stop")

	return cmd
}

// NewWorkspaceUpdateCmd creates the workspace update command
func NewWorkspaceUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <workspace-id>",
		Short: "Update a workspace",
		Long:  `Update a workspace. Only the fields named by flags are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.UpdateWorkspaceRequest{}
			if cmd.Flags().Changed("alias") {
				req.Alias = &workspaceAlias
			}
			if cmd.Flags().Changed("instance-type") {
				req.InstanceType = &workspaceInstanceType
			}
			if cmd.Flags().Changed("storage") {
				req.StorageGiB = &workspaceStorage
			}
			if cmd.Flags().Changed("inactivity") {
				req.InactivityTimeoutMinutes = &workspaceInactivity
			}
			if req == (client.UpdateWorkspaceRequest{}) {
				return fmt.Errorf("nothing to update, pass at least one flag")
			}

			profile, err := activeProfile()
			if err != nil {
				return err
			}
			api, err := newClient(profile)
			if err != nil {
				return err
			}

			ws, err := api.UpdateWorkspace(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			color.Green("✓ Workspace updated: %s (%s)", ws.ID, ws.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceAlias, "alias", "", "Workspace alias")
	cmd.Flags().StringVar(&workspaceInstanceType, "instance-type", "", "Instance type")
	cmd.Flags().IntVar(&workspaceStorage, "storage", 0, "Storage in GiB (16-64)")
	cmd.Flags().IntVar(&workspaceInactivity, "inactivity", 0, "Inactivity timeout in minutes, 0 disables auto-stop")

	return cmd
}

// NewWorkspaceStopCmd creates the workspace stop command
func NewWorkspaceStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <workspace-id>",
		Short: "Stop a running workspace",
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

			if err := api.StopWorkspace(cmd.Context(), args[0]); err != nil {
				return err
			}

			color.Yellow("⊘ Stop requested for workspace %s", args[0])
			return nil
		},
	}
}
