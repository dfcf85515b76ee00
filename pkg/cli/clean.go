package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cleanAll    bool
	cleanDryRun bool
	cleanDir    string
)

// NewCleanCmd creates the clean command
func NewCleanCmd() *cobra.Command {
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean up old transform run outputs",
		Long: `Clean up the work directory, keeping only the latest run for each spec.

By default, keeps the most recent run for each spec and deletes older ones.
Use --all to remove all run directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check if directory exists
			if _, err := os.Stat(cleanDir); os.IsNotExist(err) {
				fmt.Printf("Nothing to clean - %s doesn't exist\n", cleanDir)
				return nil
			}

			if cleanAll {
				return cleanAllOutputs(cleanDir)
			}

			return cleanOldOutputs(cleanDir)
		},
	}

	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all run directories (not just old ones)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show what would be deleted without actually deleting")
	cleanCmd.Flags().StringVar(&cleanDir, "dir", ".upshift/output", "Work directory to clean")

	return cleanCmd
}

// cleanAllOutputs removes all run directories
func cleanAllOutputs(outputBaseDir string) error {
	if cleanDryRun {
		fmt.Println("Dry run mode - would delete:")
		fmt.Printf("  %s/\n", outputBaseDir)
		return nil
	}

	fmt.Printf("Removing all outputs: %s/\n", outputBaseDir)
	err := os.RemoveAll(outputBaseDir)
	if err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}

	color.Green("✓ All outputs cleaned")
	return nil
}

// cleanOldOutputs keeps only the latest run for each spec
func cleanOldOutputs(outputBaseDir string) error {
	// Read all entries in the output directory
	entries, err := os.ReadDir(outputBaseDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Nothing to clean - output directory is empty")
		return nil
	}

	// Group directories by run name (everything before the timestamp)
	runsByName := make(map[string][]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirName := entry.Name()
		runName := extractRunName(dirName)
		if runName == "" {
			continue // Skip if we can't parse the run name
		}

		runsByName[runName] = append(runsByName[runName], dirName)
	}

	// For each run name, sort by timestamp and keep only the latest
	var toDelete []string
	var toKeep []string

	for _, runs := range runsByName {
		if len(runs) <= 1 {
			toKeep = append(toKeep, runs...)
			continue // Nothing to clean for this spec
		}

		// Sort runs by directory name (which includes timestamp)
		sort.Strings(runs)

		// Keep the last one (most recent), delete the rest
		toKeep = append(toKeep, runs[len(runs)-1])
		toDelete = append(toDelete, runs[:len(runs)-1]...)
	}

	if len(toDelete) == 0 {
		fmt.Println("Nothing to clean - only latest runs exist")
		return nil
	}

	// Show what will be deleted
	fmt.Printf("Found %d old run(s) to clean up:\n", len(toDelete))
	for _, dir := range toDelete {
		fmt.Printf("  - %s\n", dir)
	}

	fmt.Printf("\nKeeping %d latest run(s):\n", len(toKeep))
	for _, dir := range toKeep {
		fmt.Printf("  + %s\n", dir)
	}

	if cleanDryRun {
		color.Cyan("\nDry run mode - no files were deleted")
		return nil
	}

	// Delete old directories
	deletedCount := 0
	for _, dir := range toDelete {
		dirPath := filepath.Join(outputBaseDir, dir)
		err := os.RemoveAll(dirPath)
		if err != nil {
			color.Red("✗ Failed to delete %s: %v", dir, err)
			continue
		}
		deletedCount++
	}

	color.Green("\n✓ Cleaned up %d old run(s)", deletedCount)
	return nil
}

// extractRunName extracts the run name from a directory name
// Expected format: {RunName}-{YYYYMMDD-HHMMSS}
func extractRunName(dirName string) string {
	// Everything before the last "-YYYYMMDD-HHMMSS" is the run name
	parts := strings.Split(dirName, "-")
	if len(parts) < 3 {
		return "" // Not a valid run directory
	}

	// The last two parts should be date and time (e.g., "20260803-151205")
	// Check if the last part looks like a time (HHMMSS - 6 digits)
	lastPart := parts[len(parts)-1]
	if len(lastPart) != 6 {
		return ""
	}

	// Check if the second-to-last part looks like a date (YYYYMMDD - 8 digits)
	datePart := parts[len(parts)-2]
	if len(datePart) != 8 {
		return ""
	}

	// Run name is everything except the last two parts
	return strings.Join(parts[:len(parts)-2], "-")
}
