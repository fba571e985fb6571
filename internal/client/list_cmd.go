package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nirmitsaini1024/tgrab/internal/api"
	"github.com/nirmitsaini1024/tgrab/internal/models"
)

func init() {
	rootCmd.AddCommand(listFilesCmd)
}

var listFilesCmd = &cobra.Command{
	Use:   "list <channel>",
	Short: "List downloadable files in a channel",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token, ok := requireToken()
		if !ok {
			return
		}

		orch := api.NewOrchestrator(apiClient())
		listing, err := orch.ListFiles(cmd.Context(), token, args[0])
		if err != nil {
			fmt.Println("Error listing files:", err)
			return
		}

		name := listing.ChannelName
		if name == "" {
			name = args[0]
		}
		fmt.Printf("%s (id %d): %d files\n", name, listing.ChannelID, listing.TotalCount)
		for _, f := range listing.Files {
			fmt.Printf("- [%d] %s (%s, %s)\n", f.MessageID, f.Filename, fileKind(f), formatSize(f.Size))
		}
	},
}

func fileKind(f models.ChannelFile) string {
	switch {
	case f.IsVideo:
		return "video"
	case f.IsPhoto:
		return "photo"
	default:
		return "file"
	}
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
