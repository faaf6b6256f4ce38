package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/pretty"

	"github.com/tbourn/go-repair-scheduler/internal/repo"
)

// snapshotSuffix ends every snapshot file name: <unix-ms>_appointments.json.
const snapshotSuffix = "_appointments.json"

// Source is the read side of the blob store.
type Source interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// Snapshotter copies the raw collection blob into timestamped files.
type Snapshotter struct {
	Store Source
	Key   string
	Dir   string
	// Keep is how many snapshots survive pruning; <= 0 keeps all.
	Keep int
	Now  func() time.Time
}

// ErrNothingToSnapshot is returned when the key holds no value yet.
var ErrNothingToSnapshot = errors.New("backup: collection is empty")

// Snapshot writes the current blob to Dir and prunes old files. Valid JSON is
// pretty-printed; anything else is copied byte for byte.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, error) {
	raw, ok, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return "", fmt.Errorf("backup: read %s: %w", s.Key, err)
	}
	if !ok {
		return "", ErrNothingToSnapshot
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	data := []byte(raw)
	if jsoniter.Valid(data) {
		data = pretty.Pretty(data)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	name := strconv.FormatInt(now().UnixMilli(), 10) + snapshotSuffix
	dst := filepath.Join(s.Dir, name)
	if err := repo.WriteFileAtomic(dst, data); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", dst, err)
	}

	removed, err := s.Prune()
	if err != nil {
		log.Warn().Err(err).Str("dir", s.Dir).Msg("backup prune failed")
	}
	log.Info().Str("file", dst).Int("bytes", len(data)).Int("pruned", removed).Msg("snapshot written")
	return dst, nil
}

// Job adapts Snapshot to the scheduler. An empty collection is not an error.
func (s *Snapshotter) Job() Job {
	return func(ctx context.Context) error {
		_, err := s.Snapshot(ctx)
		if errors.Is(err, ErrNothingToSnapshot) {
			return nil
		}
		return err
	}
}

// Snapshots lists snapshot file paths in Dir, newest first.
func (s *Snapshotter) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	type snap struct {
		path string
		ts   int64
	}
	var snaps []snap
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotSuffix) {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSuffix(e.Name(), snapshotSuffix), 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap{path: filepath.Join(s.Dir, e.Name()), ts: ts})
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].ts != snaps[j].ts {
			return snaps[i].ts > snaps[j].ts
		}
		return snaps[i].path > snaps[j].path
	})
	out := make([]string, len(snaps))
	for i, sn := range snaps {
		out[i] = sn.path
	}
	return out, nil
}

// Prune deletes all but the newest Keep snapshots. Files not named like a
// snapshot are left alone.
func (s *Snapshotter) Prune() (int, error) {
	if s.Keep <= 0 {
		return 0, nil
	}
	snaps, err := s.Snapshots()
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, p := range snaps[min(s.Keep, len(snaps)):] {
		if err := os.Remove(p); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
