package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/statute-cli/internal/store"
)

var lawsCmd = &cobra.Command{
	Use:   "laws",
	Short: "List stored laws",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		name, _ := cmd.Flags().GetString("name")
		amended, _ := cmd.Flags().GetBool("amended")
		limit, _ := cmd.Flags().GetInt("limit")

		laws, err := st.ListLaws(ctx, store.LawFilter{
			Status:      status,
			NameLike:    name,
			AmendedOnly: amended,
			Limit:       limit,
		})
		if err != nil {
			return eris.Wrap(err, "laws list")
		}
		if len(laws) == 0 {
			fmt.Fprintln(os.Stderr, "No laws found.")
			return nil
		}
		formatLawsList(os.Stdout, laws)
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent folder sync runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func formatLawsList(w io.Writer, laws []store.LawSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tARTICLES\tAMENDED\tCANCELED\tISSUED\tNAME")
	for _, l := range laws {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			l.ID, l.Status, l.ArticleCount, l.AmendedCount, l.CanceledCount, l.IssueDateHijri, l.Name)
	}
	_ = tw.Flush()
}

func formatRunsList(w io.Writer, runs []store.SyncRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCOPE\tSTATUS\tEXTRACTED\tSKIPPED\tFAILED\tSTARTED\tDURATION")
	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.Scope, r.Status, r.Extracted, r.Skipped, r.Failed,
			r.StartedAt.Format("2006-01-02 15:04:05"), dur)
	}
	_ = tw.Flush()
}

func init() {
	lawsCmd.Flags().String("status", "", "filter by law status")
	lawsCmd.Flags().String("name", "", "filter by name substring")
	lawsCmd.Flags().Bool("amended", false, "only laws with amended articles")
	lawsCmd.Flags().Int("limit", 50, "max number of laws to display")
	runsCmd.Flags().Int("limit", 20, "max number of runs to display")
	rootCmd.AddCommand(lawsCmd)
	rootCmd.AddCommand(runsCmd)
}
