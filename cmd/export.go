package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/statute-cli/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <law-id>",
	Short: "Export a stored law to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		law, err := st.GetLaw(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}

		out := exportOut
		if out == "" {
			out = law.ID + ".xlsx"
		}
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", out)
		}
		if err := export.WriteXLSX(f, law); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrap(f.Close(), "export: close")
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output workbook (default <law-id>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
