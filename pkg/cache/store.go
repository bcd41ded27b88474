package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/yaklabco/nllint/pkg/diag"
)

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

const (
	bucketEntries = "entries"
	bucketMeta    = "meta"
	metaVersion   = "version"

	// archiveVersion is bumped whenever FileCacheEntry's on-disk shape
	// changes incompatibly; Load discards and rebuilds on mismatch per
	// spec's "implementation-defined format with a version tag".
	archiveVersion = 1
)

// Store is the in-memory working set of file cache entries, guarded by a
// single lock per spec §5 ("a single lock guards the entry map"). Save
// and Load move this working set to and from a single bbolt archive
// file.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*FileCacheEntry
	path    string
}

// New creates an empty store that will persist to archivePath.
func New(archivePath string) *Store {
	return &Store{entries: make(map[string]*FileCacheEntry), path: archivePath}
}

// Set overwrites the entry for path.
func (s *Store) Set(path string, entry *FileCacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = entry
}

// Get returns the raw entry for path, if any, without validity checking.
func (s *Store) Get(path string) (*FileCacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	return e, ok
}

// Lookup returns the entry for path only if it is still valid against
// the given fingerprints and rule versions.
func (s *Store) Lookup(path string, contentHash, configHash Fingerprint, ruleVersions map[string]string) (*FileCacheEntry, bool) {
	e, ok := s.Get(path)
	if !ok || !e.Valid(contentHash, configHash, ruleVersions) {
		return nil, false
	}
	return e, true
}

// Clear empties the in-memory working set. Does not touch the on-disk
// archive until Save is called.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*FileCacheEntry)
}

// wireEntry is FileCacheEntry's on-disk shape: diag.Diagnostic's Fix
// pointer and ast.Span fields round-trip through msgpack natively, so
// this only exists to keep the wire shape decoupled from internal field
// renames.
type wireEntry struct {
	ContentHash  [32]byte
	ConfigHash   [32]byte
	RuleVersions map[string]string
	Diagnostics  []diag.Diagnostic
	Blocks       []BlockEntry
	CreatedAtUTC int64
}

// Save writes the entire in-memory working set to a fresh archive file
// and atomically replaces the previous one (temp-file-plus-rename),
// matching the teacher's fsutil.WriteAtomic pattern for whole-file
// replacement. All entries are written inside one bbolt Update
// transaction on the temporary archive, so a failed write commits none.
func (s *Store) Save() error {
	s.mu.RLock()
	snapshot := make(map[string]*FileCacheEntry, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	tmpPath := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &diag.CacheError{Reason: "creating cache directory", Err: err}
	}
	_ = os.Remove(tmpPath)

	db, err := bolt.Open(tmpPath, 0o644, nil)
	if err != nil {
		return &diag.CacheError{Reason: "opening temporary cache archive", Err: err}
	}

	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		if err != nil {
			return err
		}
		if err := meta.Put([]byte(metaVersion), []byte{byte(archiveVersion)}); err != nil {
			return err
		}

		entries, err := tx.CreateBucketIfNotExists([]byte(bucketEntries))
		if err != nil {
			return err
		}
		for path, e := range snapshot {
			we := wireEntry{
				ContentHash:  e.ContentHash,
				ConfigHash:   e.ConfigHash,
				RuleVersions: e.RuleVersions,
				Diagnostics:  e.Diagnostics,
				Blocks:       e.Blocks,
				CreatedAtUTC: e.CreatedAt.UTC().Unix(),
			}
			data, err := msgpack.Marshal(we)
			if err != nil {
				return fmt.Errorf("encoding entry for %s: %w", path, err)
			}
			if err := entries.Put([]byte(path), data); err != nil {
				return err
			}
		}
		return nil
	})
	closeErr := db.Close()
	if err != nil {
		return &diag.CacheError{Reason: "writing cache archive", Err: err}
	}
	if closeErr != nil {
		return &diag.CacheError{Reason: "closing temporary cache archive", Err: closeErr}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return &diag.CacheError{Reason: "replacing cache archive", Err: err}
	}
	return nil
}

// Load replaces the in-memory working set with the contents of the
// on-disk archive. A missing file is treated as an empty cache, not an
// error. A version mismatch discards the archive and starts fresh,
// matching spec's "on version mismatch the file is discarded and
// rebuilt".
func (s *Store) Load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.Clear()
		return nil
	}

	db, err := bolt.Open(s.path, 0o644, nil)
	if err != nil {
		return &diag.CacheError{Reason: "opening cache archive", Err: err}
	}
	defer db.Close()

	loaded := make(map[string]*FileCacheEntry)
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		if meta == nil {
			return fmt.Errorf("cache archive missing %q bucket", bucketMeta)
		}
		version := meta.Get([]byte(metaVersion))
		if len(version) != 1 || version[0] != byte(archiveVersion) {
			return fmt.Errorf("cache archive version mismatch")
		}

		entries := tx.Bucket([]byte(bucketEntries))
		if entries == nil {
			return nil
		}
		return entries.ForEach(func(k, v []byte) error {
			var we wireEntry
			if err := msgpack.Unmarshal(v, &we); err != nil {
				return fmt.Errorf("decoding entry for %s: %w", k, err)
			}
			loaded[string(k)] = &FileCacheEntry{
				ContentHash:  we.ContentHash,
				ConfigHash:   we.ConfigHash,
				RuleVersions: we.RuleVersions,
				Diagnostics:  we.Diagnostics,
				Blocks:       we.Blocks,
				CreatedAt:    unixUTC(we.CreatedAtUTC),
			}
			return nil
		})
	})
	if err != nil {
		// Version mismatch or corruption: absorb per spec §7, start from
		// an empty cache rather than surfacing a fatal error.
		s.Clear()
		return &diag.CacheError{Reason: "cache archive unreadable, starting fresh", Err: err}
	}

	s.mu.Lock()
	s.entries = loaded
	s.mu.Unlock()
	return nil
}
