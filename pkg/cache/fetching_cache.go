package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/genie-oss/agent/pkg/locks"
	"github.com/genie-oss/agent/pkg/log"
	"github.com/genie-oss/agent/pkg/resource"
	"github.com/genie-oss/agent/pkg/utils"
	"github.com/spf13/afero"
)

type fetchingCache struct {
	fs      utils.Fs
	loader  resource.Loader
	locks   locks.LockFactory
	cleanup CleanupExecutor
	layout  layout

	mu    sync.Mutex
	stats CacheStats
}

// NewFetchingCache creates a cache rooted at cacheDir. The directory
// is created if missing and must live on a single filesystem.
func NewFetchingCache(
	fs utils.Fs,
	loader resource.Loader,
	lockFactory locks.LockFactory,
	cleanup CleanupExecutor,
	cacheDir string,
) (*fetchingCache, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("%w: cache directory not set", utils.ErrBadRequest)
	}

	if err := fs.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	return &fetchingCache{
		fs:      fs,
		loader:  loader,
		locks:   lockFactory,
		cleanup: cleanup,
		layout:  layout{root: cacheDir},
	}, nil
}

func (c *fetchingCache) GetResourceCacheId(uri string) string {
	return utils.UriDigest(uri)
}

// GetCacheResourceVersionDataFile returns the path holding the cached
// bytes of a resource version. The file exists iff the version has
// been downloaded completely.
func (c *fetchingCache) GetCacheResourceVersionDataFile(id string, version int64) string {
	return c.layout.dataFile(id, version)
}

// GetCacheResourceVersionDownloadFile returns the path of the
// in-progress download of a resource version. The file only exists
// while a fetch holds the version lock, or after a crash.
func (c *fetchingCache) GetCacheResourceVersionDownloadFile(id string, version int64) string {
	return c.layout.downloadFile(id, version)
}

// GetCacheResourceVersionLockFile returns the path anchoring the
// version lock. The file is never deleted once created.
func (c *fetchingCache) GetCacheResourceVersionLockFile(id string, version int64) string {
	return c.layout.lockFile(id, version)
}

func (c *fetchingCache) Get(uri string, target string) error {
	if uri == "" {
		return fmt.Errorf("%w: empty uri", utils.ErrBadRequest)
	}

	res, err := c.loader.GetResource(uri)
	if err != nil {
		return err
	}

	exists, err := res.Exists()
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", utils.ErrResourceNotFound, uri)
	}

	version, err := res.LastModified()
	if err != nil {
		return err
	}

	id := c.GetResourceCacheId(uri)

	if err := c.fs.MkdirAll(c.layout.versionDir(id, version), 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}
	if err := c.touch(c.layout.lockFile(id, version)); err != nil {
		return err
	}

	// Evict older versions in the background. Failures are logged by
	// the task itself and never fail this fetch.
	c.cleanup.Submit(func() {
		if err := c.CleanUpOlderResourceVersions(id, version); err != nil {
			log.Warnf("failed to clean up older versions of %s: %v", id, err)
			log.DebugError(err)
		}
	})

	lock, err := c.locks.GetLock(c.layout.lockFile(id, version))
	if err != nil {
		return err
	}
	defer lock.Close()

	if err := lock.Lock(); err != nil {
		return err
	}

	dataFile := c.layout.dataFile(id, version)

	cached, err := afero.Exists(c.fs, dataFile)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dataFile, err)
	}

	if cached {
		log.Tracef("cache hit: %s version %d", uri, version)
		c.count(func(s *CacheStats) { s.Hits++ })
	} else {
		log.Debugf("cache miss: %s version %d", uri, version)
		c.count(func(s *CacheStats) { s.Misses++ })

		if err := c.download(res, id, version); err != nil {
			return err
		}
	}

	return utils.CopyFile(c.fs, dataFile, target)
}

// download streams the resource into the download file and publishes
// it by renaming to the data file. Caller must hold the version lock.
func (c *fetchingCache) download(res resource.Resource, id string, version int64) error {
	downloadFile := c.layout.downloadFile(id, version)

	stream, err := res.OpenStream()
	if err != nil {
		return c.downloadFailed(downloadFile, err)
	}
	defer stream.Close()

	// Create truncates residue left behind by a crashed attempt.
	out, err := c.fs.Create(downloadFile)
	if err != nil {
		return c.downloadFailed(downloadFile, err)
	}

	if _, err := io.Copy(out, stream); err != nil {
		out.Close()
		return c.downloadFailed(downloadFile, err)
	}

	if err := out.Close(); err != nil {
		return c.downloadFailed(downloadFile, err)
	}

	dataFile := c.layout.dataFile(id, version)
	if err := c.fs.Rename(downloadFile, dataFile); err != nil {
		return fmt.Errorf("failed to publish %s: %w", dataFile, err)
	}

	return nil
}

// downloadFailed removes the partial download file and wraps err so
// the next fetch attempt starts from a clean slate.
func (c *fetchingCache) downloadFailed(downloadFile string, err error) error {
	if removeErr := c.fs.Remove(downloadFile); removeErr != nil && !os.IsNotExist(removeErr) {
		log.Warnf("failed to remove partial download %s: %v", downloadFile, removeErr)
	}

	if errors.Is(err, utils.ErrDownloadFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", utils.ErrDownloadFailed, err)
}

func (c *fetchingCache) CleanUpOlderResourceVersions(resourceID string, keepVersion int64) error {
	entries, err := afero.ReadDir(c.fs, c.layout.resourceDir(resourceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list versions of %s: %w", resourceID, err)
	}

	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		version, ok := parseVersion(entry.Name())
		if !ok || version >= keepVersion {
			continue
		}

		if err := c.evictVersion(resourceID, version); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// evictVersion removes the data and download files of one version
// under its lock. The lock file stays behind so that concurrent
// fetches of the same version keep rendezvousing on a stable path.
func (c *fetchingCache) evictVersion(id string, version int64) error {
	lock, err := c.locks.GetLock(c.layout.lockFile(id, version))
	if err != nil {
		return err
	}
	defer lock.Close()

	if err := lock.Lock(); err != nil {
		return err
	}

	removed, err := c.removeIfPresent(c.layout.dataFile(id, version))
	if err != nil {
		return err
	}
	if removed {
		log.Debugf("evicted version %d of %s", version, id)
		c.count(func(s *CacheStats) { s.Evictions++ })
	}

	_, err = c.removeIfPresent(c.layout.downloadFile(id, version))
	return err
}

func (c *fetchingCache) removeIfPresent(path string) (bool, error) {
	if err := c.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return true, nil
}

// touch creates the file if it does not exist, without truncating it.
func (c *fetchingCache) touch(path string) error {
	file, err := c.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return file.Close()
}

func (c *fetchingCache) count(update func(*CacheStats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.stats)
}

func (c *fetchingCache) Statistics() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
