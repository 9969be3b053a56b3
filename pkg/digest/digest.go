// Package digest provides content digests for build files. The Cache is
// the caching digest provider the interpreter consults: per-file digests
// are cached by file size and modification time.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/forjbuild/forj/pkg/errors"
	"github.com/forjbuild/forj/pkg/types"
)

// Provider supplies a content digest for a file path.
type Provider interface {
	FileDigest(path string) (string, error)
}

// Cache is a Provider that caches digests by file identity (size + mtime).
type Cache struct {
	fs types.FS

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	size   int64
	mtime  time.Time
	digest string
}

// NewCache creates a digest cache over the given filesystem.
func NewCache(fs types.FS) *Cache {
	return &Cache{
		fs:      fs,
		entries: make(map[string]entry),
	}
}

// FileDigest returns the sha256 digest of the file's contents in the form
// "sha256:<hex>", recomputing only when size or mtime changed.
func (c *Cache) FileDigest(path string) (string, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileNotFound, "failed to stat %s", path)
	}

	c.mu.Lock()
	cached, ok := c.entries[path]
	c.mu.Unlock()
	if ok && cached.size == info.Size() && cached.mtime.Equal(info.ModTime()) {
		return cached.digest, nil
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", path)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
	}
	digest := fmt.Sprintf("sha256:%s", hex.EncodeToString(h.Sum(nil)))

	c.mu.Lock()
	c.entries[path] = entry{size: info.Size(), mtime: info.ModTime(), digest: digest}
	c.mu.Unlock()

	return digest, nil
}

// Combine folds an ordered list of (path, digest) pairs into one stable
// hexadecimal digest. Order matters: swapping two entries changes the
// result.
func Combine(paths []string, digests []string) string {
	h := sha256.New()
	for i, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(digests[i]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
