package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/upload"
)

var uploadDir string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload benchmark artifacts to S3-compatible storage",
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadDir, "dir", "",
		"Directory to upload (default: the configured reports directory)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	dir := uploadDir
	if dir == "" {
		dir = cfg.Bench.ReportsDir
	}

	uploader, err := upload.NewS3Uploader(log, &cfg.Upload)
	if err != nil {
		return fmt.Errorf("configuring uploader: %w", err)
	}

	ctx := cmd.Context()

	if err := uploader.Preflight(ctx); err != nil {
		return operational(fmt.Errorf("storage preflight failed: %w", err))
	}

	if err := uploader.Upload(ctx, dir); err != nil {
		return operational(err)
	}

	return nil
}
