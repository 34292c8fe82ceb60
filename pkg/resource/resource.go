package resource

import (
	"io"
)

// Resource is a handle to remote or local content. Implementations
// may perform network round trips on any of the methods.
type Resource interface {
	// Exists reports whether the resource is available.
	Exists() (bool, error)

	// LastModified returns the last modification instant of the
	// resource in milliseconds since the epoch. The value is used
	// verbatim as the resource version.
	LastModified() (int64, error)

	// OpenStream opens the resource content for reading.
	OpenStream() (io.ReadCloser, error)
}

// Loader resolves a URI to a Resource. Loaders are stateless; a
// returned Resource is only valid for the URI it was created for.
type Loader interface {
	GetResource(uri string) (Resource, error)
}
