// Package widget mounts third-party checkout fragments into a page document.
package widget

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"sync"

	"hotel_storefront/internal/domain"
)

var ErrAlreadyLoaded = errors.New("widget: fragment already loaded")

var page = template.Must(template.New("checkout").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Checkout</title></head>
<body>
<div id="{{.ContainerID}}"></div>
{{.Fragment}}
</body>
</html>
`))

// Frame holds one placeholder container and the fragment injected next to it.
// The fragment is opaque and comes from the payment backend as-is.
type Frame struct {
	containerID string
	content     string

	mu     sync.Mutex
	loaded bool
	doc    []byte
}

func New(containerID, content string) *Frame {
	return &Frame{containerID: containerID, content: content}
}

// Factory adapts New to the loader factory the payment view expects.
func Factory(containerID, content string) domain.ScriptLoader {
	return New(containerID, content)
}

func (f *Frame) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return ErrAlreadyLoaded
	}
	if strings.TrimSpace(f.content) == "" {
		return errors.New("widget: empty checkout fragment")
	}
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		ContainerID string
		Fragment    template.HTML
	}{f.containerID, template.HTML(f.content)})
	if err != nil {
		return err
	}
	f.doc = buf.Bytes()
	f.loaded = true
	return nil
}

func (f *Frame) IsLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Unload drops the rendered document; the fragment must be loaded again
// before it can be served.
func (f *Frame) Unload() {
	f.mu.Lock()
	f.loaded = false
	f.doc = nil
	f.mu.Unlock()
}

// Document returns the rendered page, or nil when nothing is mounted.
func (f *Frame) Document() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil
	}
	out := make([]byte, len(f.doc))
	copy(out, f.doc)
	return out
}
