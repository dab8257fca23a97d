package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
)

var configInitOut string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file populated with defaults",
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVarP(&configInitOut, "output", "o",
		"dwhbench.yaml", "Output path for the generated config")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configInitOut); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", configInitOut)
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configInitOut, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configInitOut, err)
	}

	log.WithField("path", configInitOut).Info("Starter config written")

	return nil
}
