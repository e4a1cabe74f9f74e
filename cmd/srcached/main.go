package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rafalgolarz/srcache/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "srcached",
		Short: "srcached - refresh-ahead value cache daemon",
		Long:  "Serves values declared in a config file over HTTP, recomputing them in the background on a fixed cadence.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "srcached.yaml", "path to config file")

	rootCmd.AddCommand(
		serveCmd(),
		checkCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d keys)\n", configPath, len(cfg.Keys))
			return nil
		},
	}
}
