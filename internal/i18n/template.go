package i18n

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

var (
	ErrRenderTemplate = errors.New("i18n: render error")
	ErrParseTemplate  = errors.New("i18n: parse error")
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"default": defaultFunc,
		"json":    jsonFunc,
		"lower":   func(v any) string { return strings.ToLower(cast.ToString(v)) },
		"upper":   func(v any) string { return strings.ToUpper(cast.ToString(v)) },
		"trim": func(v any, suffix any) string {
			return strings.TrimSuffix(cast.ToString(v), cast.ToString(suffix))
		},
	}
}

func defaultFunc(def any, value any) any {
	if value != nil && value != "" {
		return value
	}
	return def
}

func jsonFunc(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// templateCache keeps parsed translation templates keyed by language and key.
type templateCache struct {
	mu    sync.RWMutex
	items map[string]*template.Template
}

func newTemplateCache() *templateCache {
	return &templateCache{items: make(map[string]*template.Template)}
}

func (c *templateCache) get(lang, key, text string) (*template.Template, error) {
	id := lang + "\x00" + key
	c.mu.RLock()
	t, ok := c.items[id]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := template.New(key).
		Option("missingkey=zero").
		Funcs(templateFuncs()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseTemplate, key, err)
	}

	c.mu.Lock()
	c.items[id] = t
	c.mu.Unlock()
	return t, nil
}

func render(t *template.Template, data any) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderTemplate, err)
	}
	return buf.String(), nil
}
