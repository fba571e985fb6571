package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(setServerCmd)
	rootCmd.AddCommand(setCredentialsCmd)
	setCredentialsCmd.Flags().Int("api-id", 0, "Application api_id")
	setCredentialsCmd.Flags().String("api-hash", "", "Application api_hash")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		path := cfgFile
		if path == "" {
			var err error
			path, err = GetConfigPath()
			if err != nil {
				fmt.Println("Error getting config path:", err)
				return
			}
		}
		fmt.Println(path)
	},
}

var setServerCmd = &cobra.Command{
	Use:   "set-server <url>",
	Short: "Set the remote server URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg.ServerURL = args[0]
		if err := SaveConfigGlobal(); err != nil {
			fmt.Println("Error saving config:", err)
			return
		}
		fmt.Printf("Server URL set to %s\n", args[0])
	},
}

var setCredentialsCmd = &cobra.Command{
	Use:   "set-credentials",
	Short: "Store application api_id and api_hash",
	Run: func(cmd *cobra.Command, args []string) {
		apiID, _ := cmd.Flags().GetInt("api-id")
		apiHash, _ := cmd.Flags().GetString("api-hash")
		if apiID <= 0 || apiHash == "" {
			fmt.Println("Both --api-id and --api-hash are required")
			return
		}

		cfg.APIID = apiID
		cfg.APIHash = apiHash
		if err := SaveConfigGlobal(); err != nil {
			fmt.Println("Error saving config:", err)
			return
		}
		fmt.Println("Credentials saved.")
	},
}
