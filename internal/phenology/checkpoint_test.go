package phenology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(pixelID string, year, days int) []DerivativeRecord {
	records := make([]DerivativeRecord, days)
	for i := range records {
		records[i] = DerivativeRecord{
			PixelID:   pixelID,
			Year:      year,
			Yday:      i + 1,
			DerivMean: 0.001 * float64(i),
			DerivLwr:  0.001*float64(i) - 0.0005,
			DerivUpr:  0.001*float64(i) + 0.0005,
			Sig:       "*",
		}
	}
	return records
}

func TestCheckpointSaveLoadClear(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "derivatives.csv")
	store := NewCheckpointStore(outputPath)

	_, ok := store.Load()
	assert.False(t, ok, "fresh store should report no checkpoint")

	records := append(sampleRecords("P1", 2014, 365), sampleRecords("P2", 2014, 365)...)
	require.NoError(t, store.Save(records))

	loaded, ok := store.Load()
	require.True(t, ok)
	require.Len(t, loaded, len(records))
	assert.Equal(t, records[0].PixelID, loaded[0].PixelID)
	assert.InDelta(t, records[100].DerivMean, loaded[100].DerivMean, 1e-12)
	assert.Equal(t, records[5].Sig, loaded[5].Sig)

	require.NoError(t, store.Clear())
	_, ok = store.Load()
	assert.False(t, ok)

	// Clearing an already-absent checkpoint is not an error.
	assert.NoError(t, store.Clear())
}

func TestCheckpointOverwrites(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "derivatives.csv"))

	require.NoError(t, store.Save(sampleRecords("P1", 2014, 10)))
	require.NoError(t, store.Save(sampleRecords("P2", 2015, 20)))

	loaded, ok := store.Load()
	require.True(t, ok)
	require.Len(t, loaded, 20)
	assert.Equal(t, "P2", loaded[0].PixelID)
}

func TestCheckpointCorruptFileTreatedAsAbsent(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "derivatives.csv")
	store := NewCheckpointStore(outputPath)

	require.NoError(t, os.WriteFile(store.Path(), []byte("not a gzip file"), 0644))

	_, ok := store.Load()
	assert.False(t, ok, "corrupt checkpoint must be treated as a fresh run")
}
