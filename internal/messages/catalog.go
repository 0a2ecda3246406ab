package messages

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog resolves user-facing messages for the languages a client accepts.
type Catalog struct {
	bundle   *i18n.Bundle
	fallback language.Tag
}

// NewCatalog loads every embedded locale. defaultLanguage is used when the
// client sends no usable preference.
func NewCatalog(defaultLanguage string) (*Catalog, error) {
	fallback, err := language.Parse(strings.TrimSpace(defaultLanguage))
	if err != nil {
		fallback = language.English
	}
	bundle := i18n.NewBundle(fallback)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("messages: read locales: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
			return nil, fmt.Errorf("messages: load %s: %w", entry.Name(), err)
		}
	}
	return &Catalog{bundle: bundle, fallback: fallback}, nil
}

// Languages lists the loaded locales.
func (c *Catalog) Languages() []language.Tag {
	return c.bundle.LanguageTags()
}

// Message localizes id for an Accept-Language header value. Unknown ids are
// returned unchanged.
func (c *Catalog) Message(acceptLanguage, id string) string {
	if c == nil {
		return id
	}
	localizer := i18n.NewLocalizer(c.bundle, acceptLanguage, c.fallback.String())
	message, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil || message == "" {
		return id
	}
	return message
}
