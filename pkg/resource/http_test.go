package resource

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/genie-oss/agent/pkg/utils"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lastModifiedHeader = "Wed, 21 Oct 2015 07:28:00 GMT"

func TestHttpResourceProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", lastModifiedHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/config.xml")
	require.NoError(t, err)

	exists, err := res.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	version, err := res.LastModified()
	require.NoError(t, err)
	assert.Equal(t, int64(1445412480000), version)
}

func TestHttpResourceNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/missing")
	require.NoError(t, err)

	exists, err := res.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHttpResourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/broken")
	require.NoError(t, err)

	_, err = res.Exists()
	assert.Error(t, err)
}

func TestHttpResourceOpenStream(t *testing.T) {
	content := []byte("<configuration/>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/config.xml")
	require.NoError(t, err)

	stream, err := res.OpenStream()
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestHttpResourceOpenStreamGzip(t *testing.T) {
	content := []byte("<configuration><property/></configuration>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write(content)
		gz.Close()
	}))
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/config.xml")
	require.NoError(t, err)

	stream, err := res.OpenStream()
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestHttpResourceOpenStreamZstd(t *testing.T) {
	content := []byte("<configuration><property/></configuration>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "zstd")
		w.Header().Set("Content-Encoding", "zstd")
		enc, err := zstd.NewWriter(w)
		require.NoError(t, err)
		enc.Write(content)
		enc.Close()
	}))
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/config.xml")
	require.NoError(t, err)

	stream, err := res.OpenStream()
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestHttpResourceOpenStreamNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	loader := NewHttpLoader(server.Client())
	res, err := loader.GetResource(server.URL + "/missing")
	require.NoError(t, err)

	_, err = res.OpenStream()
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrDownloadFailed))
}

func TestHttpLoaderRejectsUnsupportedScheme(t *testing.T) {
	loader := NewHttpLoader(nil)
	_, err := loader.GetResource("ftp://my-server.com/config.xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrBadRequest))
}
