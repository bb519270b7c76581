// Package render provides the collaborators that turn a URL into fully
// rendered HTML, for pages whose content is produced by client-side script.
package render

import (
	"context"
	"strings"
)

// Renderer returns the rendered HTML of the page at url.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Func adapts an ordinary function to the Renderer interface.
type Func func(ctx context.Context, url string) (string, error)

// Render calls f(ctx, url).
func (f Func) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Matches reports whether contentType contains any of the trigger fragments.
// Content-Type values are compared case-insensitively.
func Matches(contentType string, triggers []string) bool {
	if contentType == "" {
		return false
	}
	contentType = strings.ToLower(contentType)
	for _, t := range triggers {
		if t != "" && strings.Contains(contentType, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
