package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"risorls/internal/diag"
	"risorls/internal/source"
)

// Current schema version - increment when cachePayload format changes.
const cacheSchemaVersion uint16 = 1

// Key identifies a cached analysis outcome by content hash.
type Key [sha256.Size]byte

// ContentKey derives the cache key for document text.
func ContentKey(text string) Key {
	return sha256.Sum256([]byte(text))
}

type cachedDiag struct {
	Severity  uint8
	Code      uint16
	Message   string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

type cachePayload struct {
	Schema uint16
	OK     bool
	Diags  []cachedDiag
}

// Cache stores analysis outcomes on disk keyed by content hash. Compiled
// artifacts are not serialized; a cache hit carries diagnostics only.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache initializes and returns a disk cache at the standard location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenCacheDir returns a disk cache rooted at an explicit directory.
func OpenCacheDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Key) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "results", hexKey+".mp")
}

// Put serializes and writes an analysis outcome to the cache.
func (c *Cache) Put(key Key, res Result) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload := cachePayload{
		Schema: cacheSchemaVersion,
		OK:     res.OK(),
		Diags:  make([]cachedDiag, 0, len(res.Diags)),
	}
	for _, d := range res.Diags {
		payload.Diags = append(payload.Diags, cachedDiag{
			Severity:  uint8(d.Severity),
			Code:      uint16(d.Code),
			Message:   d.Message,
			StartLine: d.Primary.Start.Line,
			StartCol:  d.Primary.Start.Column,
			EndLine:   d.Primary.End.Line,
			EndCol:    d.Primary.End.Column,
		})
	}

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&payload); err != nil {
		f.Close()
		os.Remove(tmpName)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	// Atomic replace.
	return os.Rename(tmpName, p)
}

// Get reads a cached outcome. The second return is false on miss, schema
// mismatch, or decode failure.
func (c *Cache) Get(key Key) (Result, bool, error) {
	if c == nil {
		return Result{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, false, nil
		}
		return Result{}, false, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return Result{}, false, nil
	}
	if payload.Schema != cacheSchemaVersion {
		return Result{}, false, nil
	}
	res := Result{}
	for _, d := range payload.Diags {
		res.Diags = append(res.Diags, diag.Diagnostic{
			Severity: diag.Severity(d.Severity),
			Code:     diag.Code(d.Code),
			Message:  d.Message,
			Primary: source.Span{
				Start: source.Location{Line: d.StartLine, Column: d.StartCol},
				End:   source.Location{Line: d.EndLine, Column: d.EndCol},
			},
		})
	}
	return res, true, nil
}
