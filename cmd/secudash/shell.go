package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anyx-app/secudash-43b2ee93/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive query shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		history := ""
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".secudash", "history")
		}
		return shell.New(newClient(), os.Stdout).Run(cmd.Context(), history)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
