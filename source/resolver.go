// Package source turns a source dataset identifier into a local file the
// ingestion stage can read. Local identifiers are normalised; remote ones
// are fetched into a cache directory with go-getter.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/errors"
)

// FetchFunc downloads src to the file dst.
type FetchFunc func(dst, src string) error

// Resolver maps source identifiers to local paths.
type Resolver struct {
	cacheDir string
	fetch    FetchFunc
}

// NewResolver returns a resolver that caches remote sources under cacheDir.
// An empty cacheDir uses <os temp>/mlproject-sources.
func NewResolver(cacheDir string) *Resolver {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "mlproject-sources")
	}
	return &Resolver{
		cacheDir: cacheDir,
		fetch: func(dst, src string) error {
			return getter.GetFile(dst, src)
		},
	}
}

// WithFetcher replaces the remote download function.
func (r *Resolver) WithFetcher(fn FetchFunc) *Resolver {
	r.fetch = fn
	return r
}

// CacheDir returns where remote sources are stored.
func (r *Resolver) CacheDir() string {
	return r.cacheDir
}

// Resolve returns a local path for id, downloading it first when remote.
func (r *Resolver) Resolve(id string) (string, error) {
	if id == "" {
		return "", errors.New("empty source identifier")
	}
	if !IsRemote(id) {
		return NormalizePath(id), nil
	}

	if err := os.MkdirAll(r.cacheDir, am.DefaultDirPermissions); err != nil {
		return "", errors.Wrapf(err, "create source cache %s", r.cacheDir)
	}
	dst := filepath.Join(r.cacheDir, CacheName(id))
	if err := r.fetch(dst, id); err != nil {
		return "", errors.Wrapf(err, "fetch source %s", id)
	}
	return dst, nil
}

// IsRemote reports whether id needs fetching: a forced getter ("s3::...")
// or a URL with a scheme other than file.
func IsRemote(id string) bool {
	if strings.Contains(id, "::") {
		return true
	}
	scheme, _, ok := strings.Cut(id, "://")
	if !ok {
		return false
	}
	return !strings.EqualFold(scheme, "file")
}

// NormalizePath converts an identifier written with either separator style,
// or as a file:// URL, into a host path.
func NormalizePath(id string) string {
	if rest, ok := strings.CutPrefix(id, "file://"); ok {
		id = rest
	}
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(id, `\`, "/")))
}

// CacheName derives a stable cache file name for a remote identifier:
// a short digest of the full identifier plus the URL's base name.
func CacheName(id string) string {
	sum := sha256.Sum256([]byte(id))
	prefix := hex.EncodeToString(sum[:])[:12]

	raw := id
	if i := strings.LastIndex(raw, "::"); i >= 0 {
		raw = raw[i+2:]
	}
	base := "source.csv"
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if b := path.Base(u.Path); b != "/" && b != "." {
			base = b
		}
	}
	return prefix + "-" + base
}
