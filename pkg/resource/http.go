package resource

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/genie-oss/agent/pkg/utils"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// httpLoader loads resources over HTTP and HTTPS. Existence and
// version are probed with a HEAD request; content is streamed with
// GET. Compressed responses are decoded transparently.
type httpLoader struct {
	client *http.Client
}

func NewHttpLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpLoader{client: client}
}

func (l *httpLoader) GetResource(uri string) (Resource, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid uri %s: %v", utils.ErrBadRequest, uri, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme: %s", utils.ErrBadRequest, uri)
	}

	return &httpResource{client: l.client, uri: uri}, nil
}

type httpResource struct {
	client *http.Client
	uri    string

	probed       bool
	exists       bool
	lastModified int64
}

// probe issues a HEAD request and caches existence and version.
func (r *httpResource) probe() error {
	if r.probed {
		return nil
	}

	resp, err := r.client.Head(r.uri)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", r.uri, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		r.exists = false

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		r.exists = true
		if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
			r.lastModified = t.UnixMilli()
		}

	default:
		return fmt.Errorf("failed to probe %s: status %s", r.uri, resp.Status)
	}

	r.probed = true
	return nil
}

func (r *httpResource) Exists() (bool, error) {
	if err := r.probe(); err != nil {
		return false, err
	}
	return r.exists, nil
}

// LastModified returns the Last-Modified header instant, or 0 if the
// server does not report one.
func (r *httpResource) LastModified() (int64, error) {
	if err := r.probe(); err != nil {
		return 0, err
	}
	return r.lastModified, nil
}

func (r *httpResource) OpenStream() (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, r.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", utils.ErrDownloadFailed, r.uri, err)
	}
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", utils.ErrDownloadFailed, r.uri, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: status %s", utils.ErrDownloadFailed, r.uri, resp.Status)
	}

	return decodeBody(resp)
}

// decodeBody wraps the response body in a decoder matching its
// Content-Encoding.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %v", utils.ErrDownloadFailed, err)
		}
		return &decodedStream{reader: reader, body: resp.Body}, nil

	case "zstd":
		reader, err := zstd.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %v", utils.ErrDownloadFailed, err)
		}
		return &decodedStream{reader: reader.IOReadCloser(), body: resp.Body}, nil

	default:
		return resp.Body, nil
	}
}

type decodedStream struct {
	reader io.ReadCloser
	body   io.ReadCloser
}

func (s *decodedStream) Read(data []byte) (int, error) {
	return s.reader.Read(data)
}

func (s *decodedStream) Close() error {
	err := s.reader.Close()
	if bodyErr := s.body.Close(); err == nil {
		err = bodyErr
	}
	return err
}
