// Package i18n holds the translation tables and the selected display language.
package i18n

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/localstore"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

const (
	DefaultLanguage = "en"
	// LanguageKey is the local state key holding the selected language code.
	LanguageKey = "language"
)

type Store struct {
	tables    map[string]map[string]string
	fallback  string
	prefs     localstore.Store
	templates *templateCache

	mu      sync.RWMutex
	current string
}

// NewStore builds a store with the built-in tables. prefs may be nil, in which
// case the language choice is not persisted.
func NewStore(prefs localstore.Store, defaultLang string) *Store {
	s := &Store{
		tables: map[string]map[string]string{
			"en": en,
			"fr": fr,
		},
		fallback:  DefaultLanguage,
		prefs:     prefs,
		templates: newTemplateCache(),
	}
	s.current = s.normalize(defaultLang)
	return s
}

// normalize turns "fr-CH" into "fr" and unknown codes into the fallback language.
func (s *Store) normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if base, _, ok := strings.Cut(lang, "-"); ok {
		lang = base
	}
	if _, ok := s.tables[lang]; ok {
		return lang
	}
	return s.fallback
}

// Load restores the persisted language, keeping the current one when nothing is
// stored.
func (s *Store) Load(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	lang, err := s.prefs.Get(ctx, LanguageKey)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = s.normalize(lang)
	s.mu.Unlock()
	return nil
}

func (s *Store) CurrentLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Available() []string {
	langs := make([]string, 0, len(s.tables))
	for k := range s.tables {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

func (s *Store) IsAvailable(lang string) bool {
	_, ok := s.tables[lang]
	return ok
}

// ChangeLanguage switches to lang and persists the choice. Unknown languages are
// ignored and reported with ok=false.
func (s *Store) ChangeLanguage(ctx context.Context, lang string) (bool, error) {
	if !s.IsAvailable(lang) {
		return false, nil
	}
	s.mu.Lock()
	s.current = lang
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.Set(ctx, LanguageKey, lang); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Store) lookup(lang, key string) (string, string) {
	if v, ok := s.tables[lang][key]; ok {
		return lang, v
	}
	if v, ok := s.tables[s.fallback][key]; ok {
		return s.fallback, v
	}
	return "", key
}

// T translates key into the current language, falling back to the default
// language and then to the key itself.
func (s *Store) T(key string) string {
	_, v := s.lookup(s.CurrentLanguage(), key)
	return v
}

// TIn translates key into lang.
func (s *Store) TIn(lang, key string) string {
	_, v := s.lookup(s.normalize(lang), key)
	return v
}

// Render translates key and interpolates {{.field}} placeholders with data.
// On template errors the raw translation is returned.
func (s *Store) Render(ctx context.Context, key string, data any) string {
	lang, text := s.lookup(s.CurrentLanguage(), key)
	if !strings.Contains(text, "{{") {
		return text
	}
	t, err := s.templates.get(lang, key, text)
	if err != nil {
		log.Warnw(ctx, "invalid translation template", "key", key, "lang", lang, "error", err)
		return text
	}
	out, err := render(t, data)
	if err != nil {
		log.Warnw(ctx, "render translation", "key", key, "lang", lang, "error", err)
		return text
	}
	return out
}

// Table returns a copy of the table of the current language merged over the
// fallback table.
func (s *Store) Table() map[string]string {
	lang := s.CurrentLanguage()
	out := make(map[string]string, len(s.tables[s.fallback]))
	for k, v := range s.tables[s.fallback] {
		out[k] = v
	}
	for k, v := range s.tables[lang] {
		out[k] = v
	}
	return out
}
