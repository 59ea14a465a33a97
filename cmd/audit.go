package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/statute-cli/internal/audit"
	"github.com/sells-group/statute-cli/internal/store"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit [law-id]",
	Short: "Report completeness findings for stored laws",
	Long:  "Checks one stored law, or every stored law when no ID is given, and prints the findings.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var ids []string
		if len(args) == 1 {
			ids = args
		} else {
			for offset := 0; ; offset += store.DefaultListLimit {
				page, err := st.ListLaws(ctx, store.LawFilter{Limit: store.DefaultListLimit, Offset: offset})
				if err != nil {
					return eris.Wrap(err, "audit: list laws")
				}
				for _, l := range page {
					ids = append(ids, l.ID)
				}
				if len(page) < store.DefaultListLimit {
					break
				}
			}
		}

		var all []audit.Finding
		for _, id := range ids {
			law, err := st.GetLaw(ctx, id)
			if err != nil {
				return eris.Wrapf(err, "audit: load %s", id)
			}
			all = append(all, audit.LawFindings(law)...)
		}

		if auditJSON {
			return writeJSONFile("", struct {
				Laws     int             `json:"laws"`
				Summary  audit.Summary   `json:"summary"`
				Findings []audit.Finding `json:"findings"`
			}{len(ids), audit.Summarize(all), all})
		}
		formatFindings(os.Stdout, all)
		s := audit.Summarize(all)
		fmt.Fprintf(os.Stdout, "\n%d laws, %d findings (high %d, medium %d, low %d)\n",
			len(ids), s.Total, s.High, s.Medium, s.Low)
		return nil
	},
}

func formatFindings(w io.Writer, findings []audit.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAW\tSEVERITY\tCODE\tLOCATION\tMESSAGE")
	for _, f := range findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.LawID, f.Severity, f.Code, f.Location, f.Message)
	}
	_ = tw.Flush()
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print findings as JSON")
	rootCmd.AddCommand(auditCmd)
}
