package client

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nirmitsaini1024/tgrab/internal/api"
)

var (
	cfgFile string
	cfg     *Config
)

var rootCmd = &cobra.Command{
	Use:   "tgrab",
	Short: "Channel media downloader CLI",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tgrab/config.json)")
}

func initConfig() {
	var err error
	path := cfgFile
	if path == "" {
		path, err = GetConfigPath()
		if err != nil {
			fmt.Println("Error getting config path:", err)
			os.Exit(1)
		}
	}

	cfg, err = LoadConfig(path)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func GetConfig() *Config {
	return cfg
}

func SaveConfigGlobal() error {
	path := cfgFile
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}
	return SaveConfig(path, cfg)
}

// apiClient builds an API client for the configured server.
func apiClient() *api.Client {
	return api.NewClient(cfg.ServerURL)
}

// requireToken guards commands that need a completed login.
func requireToken() (string, bool) {
	if cfg.Token == "" {
		fmt.Println("Not logged in. Use 'tgrab login' first.")
		return "", false
	}
	return cfg.Token, true
}
