package batch

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
)

// Manifest records one batch run.
type Manifest struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	MinSize   int       `json:"min_size"`
	Band      int       `json:"band"`
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Results   []Result  `json:"results"`
}

// NewManifest tallies results under a fresh run ID.
func NewManifest(cfg Config, started time.Time, results []Result) Manifest {
	m := Manifest{
		RunID:     uuid.New().String(),
		StartedAt: started.UTC(),
		MinSize:   cfg.Settings.MinSize,
		Band:      cfg.Settings.Band,
		Results:   results,
	}
	for _, r := range results {
		switch {
		case r.Success:
			m.Succeeded++
		case r.Skipped:
			m.Skipped++
		default:
			m.Failed++
		}
	}
	return m
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
