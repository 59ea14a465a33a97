package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/statute-cli/internal/fetcher"
	"github.com/sells-group/statute-cli/internal/pipeline"
)

var (
	syncFolder int
	syncLimit  int
	syncResume bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extract every law in one or all folders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var folders []int
		if syncFolder != 0 {
			if _, ok := fetcher.FolderByID(syncFolder); !ok {
				return fmt.Errorf("unknown folder %d (use 1-4)", syncFolder)
			}
			folders = []int{syncFolder}
		}

		env, err := initPipeline(ctx, "sync")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Pipeline.SyncAll(ctx, folders, pipeline.SyncOptions{
			Limit:  syncLimit,
			Resume: syncResume,
		})
		formatSyncResults(os.Stdout, results)
		return err
	},
}

func formatSyncResults(w io.Writer, results []*pipeline.SyncResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FOLDER\tNAME\tLISTED\tEXTRACTED\tSKIPPED\tFAILED\tDURATION")
	var ext, skip, fail int
	for _, r := range results {
		f, _ := fetcher.FolderByID(r.Folder)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Folder, f.Name, r.Listed, r.Extracted, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
		ext += r.Extracted
		skip += r.Skipped
		fail += r.Failed
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%d\t%d\t%d\t\n", ext, skip, fail)
	_ = tw.Flush()
}

func init() {
	syncCmd.Flags().IntVar(&syncFolder, "folder", 0, "folder to sync (1-4, default all)")
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "max laws per folder (0 = all)")
	syncCmd.Flags().BoolVar(&syncResume, "resume", true, "skip laws already in the store")
	rootCmd.AddCommand(syncCmd)
}
