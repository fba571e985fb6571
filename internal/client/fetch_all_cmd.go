package client

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nirmitsaini1024/tgrab/internal/api"
)

func init() {
	rootCmd.AddCommand(fetchAllCmd)
}

var fetchAllCmd = &cobra.Command{
	Use:   "fetch-all <channel> [message_id]...",
	Short: "Download many files in one bulk request",
	Long: "Submits one bulk download for the given message ids, or for every " +
		"file in the channel when no ids are given. Files that fail do not " +
		"abort the rest of the batch.",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token, ok := requireToken()
		if !ok {
			return
		}

		channel := args[0]
		orch := api.NewOrchestrator(apiClient())

		var ids []int64
		if len(args) > 1 {
			for _, arg := range args[1:] {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					fmt.Printf("Invalid message id %q\n", arg)
					return
				}
				ids = append(ids, id)
			}
		} else {
			listing, err := orch.ListFiles(cmd.Context(), token, channel)
			if err != nil {
				fmt.Println("Error listing files:", err)
				return
			}
			if listing.TotalCount == 0 {
				fmt.Println("No files to download.")
				return
			}
			for _, f := range listing.Files {
				ids = append(ids, f.MessageID)
			}
		}

		result, err := orch.DownloadAll(cmd.Context(), token, channel, ids)
		if err != nil {
			fmt.Println("Bulk download failed:", err)
			return
		}

		for _, f := range result.Files {
			if f.Success {
				fmt.Printf("- [%d] %s (%s) ok\n", f.MessageID, f.Filename, formatSize(f.Size))
			} else {
				fmt.Printf("- [%d] FAILED: %s\n", f.MessageID, f.Error)
			}
		}
		fmt.Printf("Downloaded %d of %d files\n", result.TotalDownloaded, result.TotalRequested)
		if !result.Success {
			fmt.Println("Some files could not be downloaded.")
		}
	},
}
