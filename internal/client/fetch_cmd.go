package client

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nirmitsaini1024/tgrab/internal/api"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringP("output", "o", ".", "Directory to save files into")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <channel> <message_id>...",
	Short: "Download one or more files by message id",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		token, ok := requireToken()
		if !ok {
			return
		}
		outDir, _ := cmd.Flags().GetString("output")

		channel := args[0]
		ids := make([]int64, 0, len(args)-1)
		for _, arg := range args[1:] {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Printf("Invalid message id %q\n", arg)
				return
			}
			ids = append(ids, id)
		}

		orch := api.NewOrchestrator(apiClient())
		inflight := api.NewInflight()

		var wg sync.WaitGroup
		for _, id := range ids {
			if !inflight.Start(id) {
				fmt.Printf("Skipping %d: already downloading\n", id)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer inflight.Done(id)

				file, err := orch.DownloadOne(cmd.Context(), token, channel, id)
				if err != nil {
					fmt.Printf("Error downloading %d: %v\n", id, err)
					return
				}
				defer func() { _ = file.Body.Close() }()

				dest := filepath.Join(outDir, filepath.Base(file.Filename))
				out, err := os.Create(dest)
				if err != nil {
					fmt.Printf("Error creating %s: %v\n", dest, err)
					return
				}
				n, err := io.Copy(out, file.Body)
				_ = out.Close()
				if err != nil {
					fmt.Printf("Error saving %s: %v\n", dest, err)
					return
				}
				fmt.Printf("Downloaded %s (%s)\n", dest, formatSize(n))
			}()
		}
		wg.Wait()
	},
}
