package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	yaml "gopkg.in/yaml.v3"
)

// OutputFormat selects how command results are rendered
type OutputFormat string

const (
	OutputFormatConsole OutputFormat = "console"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatYAML    OutputFormat = "yaml"
)

// ParseFormat validates an --output flag value
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "":
		return OutputFormatConsole, nil
	case OutputFormatConsole, OutputFormatJSON, OutputFormatYAML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// printAs renders v as JSON or YAML on stdout
func printAs(format OutputFormat, v interface{}) error {
	switch format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case OutputFormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}

// statusGlyph picks the colored marker for a job or workspace status
func statusGlyph(status string) string {
	switch status {
	case "COMPLETED", "RUNNING":
		return color.GreenString("✓")
	case "PARTIALLY_COMPLETED", "STOPPING", "STOPPED", "DELETING":
		return color.YellowString("⊘")
	case "FAILED", "REJECTED":
		return color.RedString("✗")
	default:
		return color.CyanString("⟳")
	}
}
