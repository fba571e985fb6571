package client

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nirmitsaini1024/tgrab/internal/api"
	"github.com/nirmitsaini1024/tgrab/internal/models"
)

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobStartCmd)
	jobCmd.AddCommand(jobStatusCmd)
	jobStatusCmd.Flags().Bool("watch", false, "Poll until the job finishes")
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage background channel downloads",
}

var jobStartCmd = &cobra.Command{
	Use:   "start <channel>",
	Short: "Start downloading a whole channel in the background",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token, ok := requireToken()
		if !ok {
			return
		}

		orch := api.NewOrchestrator(apiClient())
		res, err := orch.StartJob(cmd.Context(), token, args[0])
		if err != nil {
			fmt.Println("Error starting job:", err)
			return
		}
		fmt.Printf("Job started: %s\n", res.JobID)
	},
}

var jobStatusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "Show progress of a background download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token, ok := requireToken()
		if !ok {
			return
		}
		watch, _ := cmd.Flags().GetBool("watch")

		orch := api.NewOrchestrator(apiClient())
		for {
			status, err := orch.JobStatus(cmd.Context(), token, args[0])
			if err != nil {
				fmt.Println("Error fetching status:", err)
				return
			}

			fmt.Printf("%s: %.1f%% (%d/%d files)", status.Status, status.Progress, status.Downloaded, status.TotalFiles)
			if status.CurrentFile != "" {
				fmt.Printf(" - %s", status.CurrentFile)
			}
			fmt.Println()

			if status.Status == models.JobFailed && status.Error != "" {
				fmt.Println("Error:", status.Error)
			}
			if !watch || status.Status == models.JobCompleted || status.Status == models.JobFailed {
				return
			}
			time.Sleep(2 * time.Second)
		}
	},
}
