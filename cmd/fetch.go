package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var fetchOut string

var fetchCmd = &cobra.Command{
	Use:   "fetch <law-id>",
	Short: "Fetch, parse and store one law",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "fetch")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, args[0])
		if err != nil {
			return err
		}
		if fetchOut == "" {
			return nil
		}
		return writeJSONFile(fetchOut, res.Law)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "also write the law JSON to this file (- for stdout)")
	rootCmd.AddCommand(fetchCmd)
}
