package protocol

import (
	"context"
	stderrors "errors"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/render"
)

// BodyOptions controls body acquisition.
type BodyOptions struct {
	// URL is handed to Renderer for render-delegated bodies.
	URL string
	// MaxContent caps raw bodies. Zero or negative means no cap.
	MaxContent int64
	// RenderContentTypes are the Content-Type fragments that trigger rendering.
	RenderContentTypes []string
	// Renderer produces render-delegated bodies. Nil disables delegation.
	Renderer render.Renderer
	Logger   zerolog.Logger
}

// ShouldRender reports whether a response with headers h is delegated.
func (o BodyOptions) ShouldRender(h *Header) bool {
	return o.Renderer != nil && render.Matches(h.Get("Content-Type"), o.RenderContentTypes)
}

// ReadBody returns the body for a response with headers h. Rendered bodies
// ignore whatever is left on r.
func ReadBody(ctx context.Context, r io.Reader, h *Header, opts BodyOptions) ([]byte, error) {
	if opts.ShouldRender(h) {
		opts.Logger.Debug().Str("url", opts.URL).Str("content_type", h.Get("Content-Type")).
			Msg("Delegating body to renderer")
		html, err := opts.Renderer.Render(ctx, opts.URL)
		if err != nil {
			return nil, errors.NewRenderError(opts.URL, err)
		}
		return []byte(html), nil
	}
	return ReadRawBody(r, h, opts.MaxContent)
}

// TargetLength returns how many body bytes to read: the smaller of
// Content-Length and maxContent, or -1 when neither bounds the read.
func TargetLength(h *Header, maxContent int64) (int64, error) {
	target := int64(-1)

	if raw, ok := h.Lookup("Content-Length"); ok {
		raw = strings.TrimSpace(raw)
		if raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return 0, errors.NewBadContentLengthError(raw, err)
			}
			if n < 0 {
				return 0, errors.NewBadContentLengthError(raw, nil)
			}
			target = n
		}
	}

	if maxContent > 0 && (target < 0 || target > maxContent) {
		target = maxContent
	}
	return target, nil
}

// ReadRawBody reads the body from r. Reaching the target length truncates
// the body; end of stream before it returns what arrived. Neither is an error.
func ReadRawBody(r io.Reader, h *Header, maxContent int64) ([]byte, error) {
	target, err := TargetLength(h, maxContent)
	if err != nil {
		return nil, err
	}
	if target == 0 {
		return []byte{}, nil
	}

	capacity := int64(constants.BufferSize)
	if target > 0 && target < capacity {
		capacity = target
	}
	body := make([]byte, 0, capacity)
	chunk := make([]byte, constants.BufferSize)

	for {
		want := int64(len(chunk))
		if target > 0 {
			if remaining := target - int64(len(body)); remaining < want {
				want = remaining
			}
		}

		n, err := r.Read(chunk[:want])
		body = append(body, chunk[:n]...)

		if target > 0 && int64(len(body)) >= target {
			return body[:target], nil
		}
		if stderrors.Is(err, io.EOF) {
			return body, nil
		}
		if err != nil {
			return nil, wrapIOError("reading body", err)
		}
	}
}
