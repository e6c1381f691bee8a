package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"covmark/internal/cover"
	"covmark/internal/project"
	"covmark/internal/report"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит разобранные отчёты на диске, ключ - хеш содержимого
// отчёта вместе с параметрами разбора.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the serialized form of a parsed report index.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	BaseDir  string
	FileDate time.Time
	Files    []DiskFile
}

// DiskFile is one index entry. Lines and Profile hold the Raw encodings.
type DiskFile struct {
	Path    string
	Lines   []byte
	Profile []byte
}

// OpenDiskCache initializes a disk cache in dir, or in the user cache
// directory under app when dir is empty.
func OpenDiskCache(dir, app string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	// подкаталог "reports" - чтобы DropAll не трогал чужие файлы
	return filepath.Join(c.dir, "reports", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
// A payload written with another schema is reported as a miss.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path is derived from the cache directory and a digest
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.dir, "reports")
	old := dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// cacheKey binds the report content to everything that changes the parse.
func cacheKey(reportPath, baseDir string, exclude []string) (project.Digest, error) {
	digest, err := project.HashFile(reportPath)
	if err != nil {
		return project.Digest{}, err
	}
	parts := make([]string, 0, len(exclude)+1)
	parts = append(parts, baseDir)
	parts = append(parts, exclude...)
	return project.Combine(digest, parts...), nil
}

func indexToDiskPayload(idx *report.Index) *DiskPayload {
	if idx == nil {
		return nil
	}
	payload := &DiskPayload{
		Schema:   diskCacheSchemaVersion,
		BaseDir:  idx.BaseDir,
		FileDate: idx.FileDate,
		Files:    make([]DiskFile, 0, idx.Len()),
	}
	for _, key := range idx.Keys() {
		e := idx.Entry(key)
		payload.Files = append(payload.Files, DiskFile{
			Path:    idx.Path(key),
			Lines:   e.Lines.Raw(),
			Profile: e.Profile.Raw(),
		})
	}
	return payload
}

func diskPayloadToIndex(payload *DiskPayload) *report.Index {
	if payload == nil || payload.Schema != diskCacheSchemaVersion {
		return nil
	}
	idx := report.NewIndex(payload.BaseDir, payload.FileDate.UTC())
	for _, f := range payload.Files {
		e := &cover.Entry{
			Lines:   cover.BitVectorFromRaw(f.Lines),
			Profile: cover.ProfileVectorFromRaw(f.Profile),
		}
		if !idx.Insert(f.Path, e) {
			// повреждённый кеш - пусть разбор пойдёт заново
			return nil
		}
	}
	return idx
}
