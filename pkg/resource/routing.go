package resource

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/genie-oss/agent/pkg/utils"
)

// routingLoader dispatches to a scheme-specific loader. URIs without
// a scheme are treated as local paths.
type routingLoader struct {
	http Loader
	file Loader
}

// NewLoader returns a Loader handling http, https and file URIs as
// well as plain filesystem paths.
func NewLoader(fs utils.Fs, client *http.Client) Loader {
	return &routingLoader{
		http: NewHttpLoader(client),
		file: NewFileLoader(fs),
	}
}

func (l *routingLoader) GetResource(uri string) (Resource, error) {
	scheme, _, found := strings.Cut(uri, "://")
	if !found {
		return l.file.GetResource(uri)
	}

	switch scheme {
	case "http", "https":
		return l.http.GetResource(uri)
	case "file":
		return l.file.GetResource(uri)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme: %s", utils.ErrBadRequest, uri)
	}
}
