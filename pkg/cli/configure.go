package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/upshift-tools/upshift/pkg/config"
)

var configureOutputFile string

// NewConfigureCmd creates the configure command with subcommands
func NewConfigureCmd() *cobra.Command {
	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Create upshift configuration files",
		Long:  `Interactively create profile, transform and workspace configuration files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation asks which file to create
			choice := promptui.Select{
				Label: "What do you want to configure",
				Items: []string{"profile", "transform", "workspace"},
			}
			_, kind, err := choice.Run()
			if err != nil {
				return err
			}

			switch kind {
			case "profile":
				return runConfigureProfile()
			case "transform":
				return runConfigureTransform()
			default:
				return runConfigureWorkspace()
			}
		},
	}

	// Add subcommands
	configureCmd.AddCommand(NewConfigureProfileCmd())
	configureCmd.AddCommand(NewConfigureTransformCmd())
	configureCmd.AddCommand(NewConfigureWorkspaceCmd())

	return configureCmd
}

// NewConfigureProfileCmd creates the configure profile command
func NewConfigureProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Create a connection profile",
		Long: `Interactively create a profile holding the service endpoints.

Profiles live under the upshift home directory and are selected with the
global --profile flag.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigureProfile()
		},
	}
}

func runConfigureProfile() error {
	profile, err := createProfile()
	if err != nil {
		return err
	}

	path, err := config.SaveProfile(profile, profile.Name)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	color.Green("✓ Created profile: %s", path)
	fmt.Println("  Sign in with 'upshift login'")
	return nil
}

// createProfile builds a profile interactively
func createProfile() (*config.Profile, error) {
	profile := &config.Profile{}

	// Prompt for profile name
	prompt := promptui.Prompt{
		Label:   "Profile name",
		Default: config.DefaultProfileName,
	}
	name, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	profile.Name = name

	// Prompt for issuer URL (required)
	prompt = promptui.Prompt{
		Label:   "Issuer URL",
		Default: "https://auth.upshift.dev",
	}
	issuer, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	profile.IssuerURL = issuer

	// Prompt for API endpoint (required)
	prompt = promptui.Prompt{
		Label:   "API endpoint",
		Default: "https://api.upshift.dev",
	}
	endpoint, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	profile.APIEndpoint = endpoint

	regionPrompt := promptui.Select{
		Label: "Region",
		Items: []string{"us-east-1", "eu-west-1", "ap-southeast-2"},
	}
	_, region, err := regionPrompt.Run()
	if err != nil {
		return nil, err
	}
	profile.Region = region

	// Prompt for OAuth client id (optional)
	prompt = promptui.Prompt{
		Label:   "OAuth client id (optional, press Enter for default)",
		Default: "",
	}
	clientID, err := prompt.Run()
	if err != nil && err != promptui.ErrInterrupt {
		return nil, err
	}
	if clientID != "" {
		profile.ClientID = clientID
	}

	if err := config.ValidateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// NewConfigureTransformCmd creates the configure transform command
func NewConfigureTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Create a transform spec",
		Long:  `Interactively create the spec file consumed by 'upshift transform start'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigureTransform()
		},
	}

	cmd.Flags().StringVarP(&configureOutputFile, "output", "o", "", "Output file path (default upshift.yaml)")

	return cmd
}

func runConfigureTransform() error {
	spec, err := createTransformSpec()
	if err != nil {
		return err
	}

	outputFile := configureOutputFile
	if outputFile == "" {
		outputFile = "upshift.yaml"
	}
	if err := config.SaveTransformSpec(spec, outputFile); err != nil {
		return fmt.Errorf("failed to save transform spec: %w", err)
	}

	color.Green("✓ Created transform spec: %s", outputFile)
	fmt.Println("  Start the job with 'upshift transform start'")
	return nil
}

// createTransformSpec builds a transform spec interactively
func createTransformSpec() (*config.TransformSpec, error) {
	spec := &config.TransformSpec{}

	// Prompt for project path
	prompt := promptui.Prompt{
		Label:   "Project path",
		Default: ".",
	}
	project, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	spec.Project = project

	// Prompt for run name (optional)
	prompt = promptui.Prompt{
		Label:   "Run name (optional, press Enter to derive from the project)",
		Default: "",
	}
	name, err := prompt.Run()
	if err != nil && err != promptui.ErrInterrupt {
		return nil, err
	}
	spec.Name = name

	sourcePrompt := promptui.Select{
		Label: "Current Java version",
		Items: config.SourceVersions(),
	}
	_, source, err := sourcePrompt.Run()
	if err != nil {
		return nil, err
	}
	spec.SourceVersion = source

	targetPrompt := promptui.Select{
		Label: "Target Java version",
		Items: config.UpgradeTargets(source),
	}
	_, target, err := targetPrompt.Run()
	if err != nil {
		return nil, err
	}
	spec.TargetVersion = target

	// Prompt for exclude patterns (optional)
	prompt = promptui.Prompt{
		Label:   "Exclude patterns, comma separated (optional, press Enter to skip)",
		Default: "",
	}
	exclude, err := prompt.Run()
	if err != nil && err != promptui.ErrInterrupt {
		return nil, err
	}
	for _, pattern := range strings.Split(exclude, ",") {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			spec.Exclude = append(spec.Exclude, trimmed)
		}
	}

	// Prompt for job timeout (optional)
	prompt = promptui.Prompt{
		Label:    "Job timeout, e.g. 2h (optional, press Enter for the default)",
		Default:  "",
		Validate: validateOptionalDuration,
	}
	timeout, err := prompt.Run()
	if err != nil && err != promptui.ErrInterrupt {
		return nil, err
	}
	if trimmed := strings.TrimSpace(timeout); trimmed != "" {
		d, perr := time.ParseDuration(trimmed)
		if perr != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", trimmed, perr)
		}
		spec.Timeout = &config.Duration{Duration: d}
	}

	if err := config.ValidateTransformSpec(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// validateOptionalDuration accepts an empty input or a parseable duration
func validateOptionalDuration(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	if _, err := time.ParseDuration(trimmed); err != nil {
		return fmt.Errorf("enter a duration like 30m or 2h")
	}
	return nil
}

// NewConfigureWorkspaceCmd creates the configure workspace command
func NewConfigureWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Create workspace settings",
		Long:  `Interactively create a settings file for 'upshift workspace create'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigureWorkspace()
		},
	}

	cmd.Flags().StringVarP(&configureOutputFile, "output", "o", "", "Output file path (default workspace.yaml)")

	return cmd
}

func runConfigureWorkspace() error {
	settings, err := createWorkspaceSettings()
	if err != nil {
		return err
	}

	outputFile := configureOutputFile
	if outputFile == "" {
		outputFile = "workspace.yaml"
	}
	if err := config.SaveWorkspaceSettings(settings, outputFile); err != nil {
		return fmt.Errorf("failed to save workspace settings: %w", err)
	}

	color.Green("✓ Created workspace settings: %s", outputFile)
	fmt.Println("  Create the workspace with 'upshift workspace create --settings " + outputFile + "'")
	return nil
}

// createWorkspaceSettings builds workspace settings interactively
func createWorkspaceSettings() (*config.WorkspaceSettings, error) {
	settings := &config.WorkspaceSettings{}

	prompt := promptui.Prompt{
		Label:    "Workspace alias",
		Validate: config.ValidateAlias,
	}
	alias, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	settings.Alias = alias

	instancePrompt := promptui.Select{
		Label: "Instance type",
		Items: []string{
			"dev.standard1.small",
			"dev.standard1.medium",
			"dev.standard1.large",
			"dev.standard1.xlarge",
		},
	}
	_, instanceType, err := instancePrompt.Run()
	if err != nil {
		return nil, err
	}
	settings.InstanceType = instanceType

	prompt = promptui.Prompt{
		Label:    "Storage in GiB (16-64)",
		Default:  "16",
		Validate: validateIntRange(16, 64),
	}
	storage, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	settings.StorageGiB, _ = strconv.Atoi(strings.TrimSpace(storage))

	prompt = promptui.Prompt{
		Label:    "Inactivity timeout in minutes (0 disables auto-stop)",
		Default:  "60",
		Validate: validateIntRange(0, 1440),
	}
	inactivity, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	settings.InactivityTimeoutMinutes, _ = strconv.Atoi(strings.TrimSpace(inactivity))

	if err := config.ValidateWorkspaceSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// validateIntRange returns a prompt validator for a bounded integer
func validateIntRange(min, max int) promptui.ValidateFunc {
	return func(input string) error {
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}
}
