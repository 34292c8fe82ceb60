package cache

import (
	"path/filepath"
	"strconv"
)

const (
	dataFileName     = "data"
	downloadFileName = "download"
	lockFileName     = "lock"
)

// layout maps (resource id, version) to the on-disk structure
//
//	<root>/<id>/<version>/data
//	<root>/<id>/<version>/download
//	<root>/<id>/<version>/lock
//
// All three files live in the same directory so that the rename of
// download to data stays on one filesystem and is atomic.
type layout struct {
	root string
}

func (l layout) resourceDir(id string) string {
	return filepath.Join(l.root, id)
}

func (l layout) versionDir(id string, version int64) string {
	return filepath.Join(l.root, id, strconv.FormatInt(version, 10))
}

func (l layout) dataFile(id string, version int64) string {
	return filepath.Join(l.versionDir(id, version), dataFileName)
}

func (l layout) downloadFile(id string, version int64) string {
	return filepath.Join(l.versionDir(id, version), downloadFileName)
}

func (l layout) lockFile(id string, version int64) string {
	return filepath.Join(l.versionDir(id, version), lockFileName)
}

// parseVersion reads a version directory name. Returns false for
// entries that are not version directories.
func parseVersion(name string) (int64, bool) {
	version, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return version, true
}
