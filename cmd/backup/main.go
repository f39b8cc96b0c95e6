package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vocabhero/internal/config"
	"vocabhero/internal/logger"
	"vocabhero/internal/service"
	"vocabhero/internal/storage"
	"vocabhero/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	log     *zap.Logger
	backend storage.Backend
	backup  *service.BackupService
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "backup",
		Short: "Vocab Hero backup tool",
		Long: `Export and import every profile, the word bank and settings as a
single JSON document.

Examples:
  backup export
  backup export --output mybackup.json
  backup import --input backup.json`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./vocabhero.yaml)")

	var output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the store to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return handleExport(cmd.Context(), a, output)
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	var (
		input string
		yes   bool
	)
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the store with a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input file does not exist: %s", input)
			}
			if !yes && !confirm(cmd, "WARNING: This will replace all existing data. Type 'yes' to confirm: ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
				return nil
			}

			a, err := open(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.close()

			a.log.Info("importing backup", zap.String("input", input))
			if err := a.backup.ImportFile(cmd.Context(), input); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Import complete!")
			return nil
		},
	}
	importCmd.Flags().StringVarP(&input, "input", "i", "", "input file path")
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(exportCmd, importCmd)
	return rootCmd
}

func open(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}
	backend, err := storage.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	st := store.New(backend, log)
	return &app{log: log, backend: backend, backup: service.NewBackupService(st, log)}, nil
}

func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("failed to close storage", zap.Error(err))
	}
	_ = a.log.Sync()
}

func handleExport(ctx context.Context, a *app, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	a.log.Info("exporting store", zap.String("output", outputPath))
	if err := a.backup.ExportFile(ctx, outputPath); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Export complete! %s (%.1f KB)\n", outputPath, float64(info.Size())/1024)
	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}
