package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/store"
)

const BackupVersion = "1.0"

// BackupData is the versioned export of every persisted store key
type BackupData struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Values     map[string]string `json:"values"`
}

// BackupService handles store export and import
type BackupService struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewBackupService(st *store.Store, log *zap.Logger) *BackupService {
	return &BackupService{store: st, log: log, now: time.Now}
}

// Export writes a backup of the store to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	values, err := s.store.Export(ctx)
	if err != nil {
		return err
	}

	backup := BackupData{
		Version:    BackupVersion,
		ExportedAt: s.now().UTC(),
		Values:     values,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("exported backup", zap.Int("keys", len(values)))
	return nil
}

// ExportFile creates a backup at outputPath
func (s *BackupService) ExportFile(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := s.Export(ctx, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Import restores the store from a backup read from r. The store checks
// every value before replacing anything.
func (s *BackupService) Import(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
		zap.Int("keys", len(backup.Values)))

	if err := s.store.Import(ctx, backup.Values); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}

// ImportFile restores the store from the backup at inputPath
func (s *BackupService) ImportFile(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()
	return s.Import(ctx, file)
}
