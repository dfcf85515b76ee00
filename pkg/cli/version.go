package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upshift-tools/upshift/pkg/client"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("upshift", client.Version)
		},
	}
}
