package catalog

import (
	"net/url"
	"strings"
)

// PictureBaseURLPlaceholder is stored in seeded catalog rows in place of the
// real catalog host.
const PictureBaseURLPlaceholder = "http://catalogbaseurltobereplaced"

type URIComposer struct {
	baseURL string
}

func NewURIComposer(baseURL string) *URIComposer {
	return &URIComposer{baseURL: strings.TrimRight(baseURL, "/")}
}

// ComposePictureURI turns a stored picture reference into a URI a client can
// fetch. Absolute URIs other than the placeholder are returned unchanged.
func (c *URIComposer) ComposePictureURI(raw string) string {
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, PictureBaseURLPlaceholder) {
		return c.baseURL + strings.TrimPrefix(raw, PictureBaseURLPlaceholder)
	}

	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw
	}

	composed, err := url.JoinPath(c.baseURL, raw)
	if err != nil {
		return c.baseURL + "/" + strings.TrimLeft(raw, "/")
	}
	return composed
}
