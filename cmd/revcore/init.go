package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revcore/revcore/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a revcore repository",
	Long: `Initialize a revcore repository: creates the .revcore directory
with default settings and the cache location for the index database.

Examples:
  revcore init             # Initialize in the current directory
  revcore init ~/reviews/widgets`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = config.ExpandPath(args[0])
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", root, err)
	}

	if _, err := config.Init(root); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized revcore repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
