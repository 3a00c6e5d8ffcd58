// Package store persists RunResults as timestamped snapshots plus a
// "latest" file per capability.
package store

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"

	"routerprobe/internal/common/fsutil"
	"routerprobe/pkg/types"
)

const snapshotLayout = "20060102_150405"

// ErrNotFound is returned by Latest when no run was persisted yet.
var ErrNotFound = errors.New("no persisted results")

// Artifact describes what a checkpoint wrote.
type Artifact struct {
	Snapshot string
	Latest   string
	// Hex blake3-256 of the written document.
	Digest    string
	Size      int
	WrittenAt time.Time
}

// Store writes into one directory.
type Store struct {
	dir string
	log zerolog.Logger
	now func() time.Time
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log, now: time.Now}
}

// Dir is the data directory.
func (s *Store) Dir() string { return s.dir }

// LatestPath is where the latest document of capability lives.
func (s *Store) LatestPath(c types.Capability) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_results_latest.json", c))
}

// snapshotPath names a snapshot by its write time to the millisecond. A name
// already on disk moves to the next free millisecond so names keep sorting
// in write order.
func (s *Store) snapshotPath(c types.Capability, at time.Time) string {
	for {
		p := filepath.Join(s.dir, fmt.Sprintf("%s_results_%s_%03d.json", c, at.Format(snapshotLayout), at.Nanosecond()/int(time.Millisecond)))
		if !fsutil.PathExists(p) {
			return p
		}
		at = at.Add(time.Millisecond)
	}
}

// Digest returns the hex blake3-256 of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Checkpoint writes r as a new snapshot and replaces the latest file. Both
// writes go through a temp file and rename, so readers never observe a
// partial document.
func (s *Store) Checkpoint(r types.RunResult) (Artifact, error) {
	if r.Capability == "" {
		return Artifact{}, errors.New("checkpoint: run has no capability")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("checkpoint: marshal: %w", err)
	}
	b = append(b, '\n')
	at := s.now()
	art := Artifact{
		Snapshot:  s.snapshotPath(r.Capability, at),
		Latest:    s.LatestPath(r.Capability),
		Digest:    Digest(b),
		Size:      len(b),
		WrittenAt: at,
	}
	if err := fsutil.WriteFileAtomic(art.Snapshot, b, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("checkpoint: snapshot: %w", err)
	}
	if err := fsutil.WriteFileAtomic(art.Latest, b, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("checkpoint: latest: %w", err)
	}
	s.log.Debug().Str("snapshot", art.Snapshot).Str("digest", art.Digest[:12]).Int("models", len(r.Models)).Msg("checkpoint written")
	return art, nil
}

// Latest loads the latest document of capability. For tool calling it falls
// back to the legacy tool_support_results_latest.json name.
func (s *Store) Latest(c types.Capability) (types.RunResult, Artifact, error) {
	candidates := []string{s.LatestPath(c)}
	if c == types.CapabilityToolCalling {
		candidates = append(candidates, filepath.Join(s.dir, "tool_support_results_latest.json"))
	}
	for _, p := range candidates {
		if !fsutil.PathExists(p) {
			continue
		}
		r, art, err := loadWithArtifact(p, c)
		if err != nil {
			return types.RunResult{}, Artifact{}, err
		}
		return r, art, nil
	}
	return types.RunResult{}, Artifact{}, fmt.Errorf("%w for %s in %s", ErrNotFound, c, s.dir)
}

// List returns the snapshot files of capability, oldest first.
func (s *Store) List(c types.Capability) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, fmt.Sprintf("%s_results_*.json", c)))
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if !strings.HasSuffix(m, "_latest.json") {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadFile reads any persisted document. Files written by the previous
// tool (naive timestamps, no_tool_call statuses) are accepted; their
// capability is inferred from the file name.
func LoadFile(path string) (types.RunResult, error) {
	r, _, err := loadWithArtifact(path, inferCapability(path))
	return r, err
}

func loadWithArtifact(path string, c types.Capability) (types.RunResult, Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.RunResult{}, Artifact{}, err
	}
	r, err := Decode(b, c)
	if err != nil {
		return types.RunResult{}, Artifact{}, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	art := Artifact{Latest: path, Digest: Digest(b), Size: len(b)}
	if fi, err := os.Stat(path); err == nil {
		art.WrittenAt = fi.ModTime()
	}
	return r, art, nil
}

func inferCapability(path string) types.Capability {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(base, string(types.CapabilityStructuredOutput)) {
		return types.CapabilityStructuredOutput
	}
	return types.CapabilityToolCalling
}
