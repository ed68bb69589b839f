package phenology

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/gzip"
)

const checkpointSuffix = ".checkpoint.csv.gz"

// CheckpointStore persists the accumulated derivative records beside the
// final output path so an interrupted run can resume. Only the batch driver
// writes it; workers never touch the file.
type CheckpointStore struct {
	path string
}

func NewCheckpointStore(outputPath string) *CheckpointStore {
	return &CheckpointStore{path: outputPath + checkpointSuffix}
}

func (s *CheckpointStore) Path() string { return s.path }

// Save overwrites the checkpoint with the full accumulated record set. The
// write goes through a temp file and rename so a crash mid-write never
// leaves a truncated checkpoint behind.
func (s *CheckpointStore) Save(records []DerivativeRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}

	gzWriter := gzip.NewWriter(file)
	if err := gocsv.Marshal(&records, gzWriter); err != nil {
		gzWriter.Close()
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write checkpoint records: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move checkpoint into place: %w", err)
	}
	return nil
}

// Load reads the checkpoint if one exists. A missing, unreadable or corrupt
// checkpoint is reported as absent, which simply means a fresh run.
func (s *CheckpointStore) Load() ([]DerivativeRecord, bool) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		fmt.Printf("Checkpoint at %s is unreadable, starting fresh: %v\n", s.path, err)
		return nil, false
	}
	defer gzReader.Close()

	var records []DerivativeRecord
	if err := gocsv.Unmarshal(gzReader, &records); err != nil {
		fmt.Printf("Checkpoint at %s is corrupt, starting fresh: %v\n", s.path, err)
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	return records, true
}

// Clear removes the checkpoint after a successful run.
func (s *CheckpointStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
