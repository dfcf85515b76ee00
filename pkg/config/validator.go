package config

import (
	"fmt"
	"path"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// javaVersionOrder ranks the supported Java versions for upgrade checks
var javaVersionOrder = map[string]int{
	"8":  1,
	"11": 2,
	"17": 3,
	"21": 4,
	"25": 5,
}

// ValidateProfile checks if a profile is valid
func ValidateProfile(profile *Profile) error {
	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateTransformSpec checks if a transform spec is valid
func ValidateTransformSpec(spec *TransformSpec) error {
	// Run struct validation
	if err := validate.Struct(spec); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Custom validation: the target version must be above the source version
	if err := validateVersionUpgrade(spec.SourceVersion, spec.TargetVersion); err != nil {
		return err
	}

	// Custom validation: exclude globs must be well formed
	for _, pattern := range spec.Exclude {
		if _, err := path.Match(pattern, "x"); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// ValidateWorkspaceSettings checks if workspace settings are valid
func ValidateWorkspaceSettings(settings *WorkspaceSettings) error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := ValidateAlias(settings.Alias); err != nil {
		return err
	}

	return nil
}

// SourceVersions lists the Java versions a project can be upgraded from
func SourceVersions() []string {
	return []string{"8", "11", "17", "21"}
}

// UpgradeTargets lists the target versions strictly above source
func UpgradeTargets(source string) []string {
	var targets []string
	for _, v := range []string{"11", "17", "21", "25"} {
		if javaVersionOrder[v] > javaVersionOrder[source] {
			targets = append(targets, v)
		}
	}
	return targets
}

// validateVersionUpgrade ensures source is strictly below target
func validateVersionUpgrade(source, target string) error {
	src, ok := javaVersionOrder[source]
	if !ok {
		return fmt.Errorf("unsupported source version: %s", source)
	}
	tgt, ok := javaVersionOrder[target]
	if !ok {
		return fmt.Errorf("unsupported target version: %s", target)
	}
	if src >= tgt {
		return fmt.Errorf("target version %s must be higher than source version %s", target, source)
	}
	return nil
}

// ValidateAlias ensures a workspace alias uses letters, digits and hyphens
// and neither starts nor ends with a hyphen
func ValidateAlias(alias string) error {
	if alias == "" {
		return fmt.Errorf("alias cannot be empty")
	}
	for _, ch := range alias {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' {
			continue
		}
		return fmt.Errorf("alias contains invalid character %q", ch)
	}
	if alias[0] == '-' || alias[len(alias)-1] == '-' {
		return fmt.Errorf("alias cannot start or end with a hyphen")
	}
	return nil
}
