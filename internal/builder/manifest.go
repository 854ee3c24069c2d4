package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is the name of the build manifest in the output directory.
const ManifestFile = "manifest.json"

// Build statuses recorded in the manifest.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// OutputRecord describes one written output file.
type OutputRecord struct {
	Source   string   `json:"source"`
	Output   string   `json:"output"`
	SHA256   string   `json:"sha256"`
	TagCount int      `json:"tags"`
	Tags     []string `json:"-"`
}

// Manifest summarises a build.
type Manifest struct {
	ID         string         `json:"id"`
	Format     string         `json:"format"`
	Timestamp  time.Time      `json:"timestamp"`
	ConfigHash string         `json:"config_hash"`
	Outputs    []OutputRecord `json:"outputs"`
	Failures   []Failure      `json:"failures,omitempty"`
	Status     string         `json:"status"`
	Duration   string         `json:"duration"`
}

func newManifest(format string, options map[string]any, start time.Time) (*Manifest, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate build id: %w", err)
	}
	hash, err := ConfigHash(format, options)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		ID:         id.String(),
		Format:     format,
		Timestamp:  start.UTC(),
		ConfigHash: hash,
	}, nil
}

func (m *Manifest) finish(d time.Duration) {
	switch {
	case len(m.Failures) == 0:
		m.Status = StatusSuccess
	case len(m.Outputs) == 0:
		m.Status = StatusFailed
	default:
		m.Status = StatusPartial
	}
	m.Duration = d.Round(time.Millisecond).String()
	if m.Outputs == nil {
		m.Outputs = []OutputRecord{}
	}
}

// Write stores the manifest as indented JSON in dir.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, ManifestFile), append(data, '\n'))
}

// ConfigHash fingerprints a format and its raw options. Map keys are
// encoded in sorted order, so equal configurations hash equally.
func ConfigHash(format string, options map[string]any) (string, error) {
	data, err := json.Marshal(struct {
		Format  string         `json:"format"`
		Options map[string]any `json:"options"`
	}{format, options})
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
