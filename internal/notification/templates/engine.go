package templates

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	texttmpl "text/template"
)

// Config selects where scenario files are read from. With Dir empty the
// embedded files are used. Reload reparses files from Dir on every render.
type Config struct {
	Dir    string
	Reload bool
}

// Rendered is one email scenario after execution.
type Rendered struct {
	Subject   string
	EmailHTML string
	EmailText string
}

// Handle ties a scenario ID to the type of data it renders.
type Handle[T any] struct {
	id string
}

// Expect declares the scenario id rendered with data of type T.
func Expect[T any](id string) Handle[T] { return Handle[T]{id: id} }

func (h Handle[T]) ID() string { return h.id }

// Engine loads, caches and executes scenario files. Each file defines the
// blocks "subject", "email_text" and "email_html"; subject is mandatory.
type Engine struct {
	src    fs.FS
	reload bool
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*scenario
}

type scenario struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

// NewEngine creates an engine over the embedded files, or over cfg.Dir when set.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{log: log, cache: make(map[string]*scenario)}
	if cfg.Dir != "" {
		e.src = os.DirFS(cfg.Dir)
		e.reload = cfg.Reload
	} else {
		sub, err := fs.Sub(EmbeddedFS, "files")
		if err != nil {
			panic(err)
		}
		e.src = sub
	}
	return e
}

// Render executes the scenario behind h.
func Render[T any](ctx context.Context, e *Engine, h Handle[T], data T) (Rendered, error) {
	return e.RenderAny(ctx, h.ID(), data)
}

// RenderAny executes scenario id with data. Text blocks are executed with
// text/template, the HTML block with html/template.
func (e *Engine) RenderAny(ctx context.Context, id string, data any) (Rendered, error) {
	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}
	sc, err := e.load(id)
	if err != nil {
		return Rendered{}, err
	}

	var out Rendered
	for _, b := range []struct {
		name string
		dst  *string
	}{
		{"subject", &out.Subject},
		{"email_text", &out.EmailText},
	} {
		if sc.text.Lookup(b.name) == nil {
			continue
		}
		var buf bytes.Buffer
		if err := sc.text.ExecuteTemplate(&buf, b.name, data); err != nil {
			return Rendered{}, fmt.Errorf("template %s: block %s: %w", id, b.name, err)
		}
		*b.dst = buf.String()
	}
	out.Subject = strings.TrimSpace(out.Subject)
	if out.Subject == "" {
		return Rendered{}, fmt.Errorf("template %s: empty subject", id)
	}

	if sc.html.Lookup("email_html") != nil {
		var buf bytes.Buffer
		if err := sc.html.ExecuteTemplate(&buf, "email_html", data); err != nil {
			return Rendered{}, fmt.Errorf("template %s: block email_html: %w", id, err)
		}
		out.EmailHTML = buf.String()
	}
	return out, nil
}

func (e *Engine) load(id string) (*scenario, error) {
	if e.reload {
		return e.parse(id)
	}

	e.mu.RLock()
	sc, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return sc, nil
	}

	sc, err := e.parse(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[id] = sc
	e.mu.Unlock()
	e.log.Debug("email template compiled", "id", id)
	return sc, nil
}

func (e *Engine) parse(id string) (*scenario, error) {
	raw, err := fs.ReadFile(e.src, id+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", id, err)
	}
	src := string(raw)

	text, err := texttmpl.New(id).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("template %s: parse text: %w", id, err)
	}
	html, err := htmltmpl.New(id).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("template %s: parse html: %w", id, err)
	}
	return &scenario{text: text, html: html}, nil
}
