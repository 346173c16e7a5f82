package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anyx-app/secudash-43b2ee93/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.jsonl | ->",
	Short: "Run a JSON-lines file of query payloads concurrently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		items, err := batch.Read(in)
		if err != nil {
			return err
		}
		workers, _ := cmd.Flags().GetInt("workers")
		results, err := batch.NewRunner(newClient(), workers).Run(cmd.Context(), items)
		if err != nil {
			return err
		}
		return batch.Write(os.Stdout, results)
	},
}

func init() {
	batchCmd.Flags().Int("workers", batch.DefaultWorkers, "Concurrent requests")
	rootCmd.AddCommand(batchCmd)
}
