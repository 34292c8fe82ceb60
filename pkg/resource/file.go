package resource

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/genie-oss/agent/pkg/utils"
)

// fileLoader loads resources from the local filesystem. Accepts
// file:// URIs and plain paths.
type fileLoader struct {
	fs utils.Fs
}

func NewFileLoader(fs utils.Fs) Loader {
	return &fileLoader{fs: fs}
}

func (l *fileLoader) GetResource(uri string) (Resource, error) {
	path := uri

	if strings.Contains(uri, "://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid uri %s: %v", utils.ErrBadRequest, uri, err)
		}
		if parsed.Scheme != "file" {
			return nil, fmt.Errorf("%w: unsupported scheme: %s", utils.ErrBadRequest, uri)
		}
		path = parsed.Path
	}

	return &fileResource{fs: l.fs, path: path}, nil
}

type fileResource struct {
	fs   utils.Fs
	path string
}

func (r *fileResource) Exists() (bool, error) {
	_, err := r.fs.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", r.path, err)
	}
	return true, nil
}

func (r *fileResource) LastModified() (int64, error) {
	info, err := r.fs.Stat(r.path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", r.path, err)
	}
	return info.ModTime().UnixMilli(), nil
}

func (r *fileResource) OpenStream() (io.ReadCloser, error) {
	file, err := r.fs.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", utils.ErrDownloadFailed, r.path, err)
	}
	return file, nil
}
