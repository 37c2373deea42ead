// Package texts holds the bot's user-facing text catalog. The Russian
// catalog is embedded at build time and addressed by dotted keys, e.g.
// "registration.saved".
package texts

import (
	"fmt"
	"log/slog"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed ru.yaml
var ruCatalog []byte

// ChatNamePlaceholder is substituted with the group chat title when the
// personal-data agreement is sent.
const ChatNamePlaceholder = "CHAT_NAME"

// Catalog resolves text keys to localized strings.
type Catalog struct {
	entries map[string]string
}

// NewCatalog parses the embedded catalog.
func NewCatalog() (*Catalog, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(ruCatalog, &raw); err != nil {
		slog.Error("Failed to parse text catalog", "error", err)
		return nil, fmt.Errorf("failed to parse text catalog: %w", err)
	}
	entries := make(map[string]string)
	flatten("", raw, entries)
	slog.Debug("Text catalog loaded", "entries", len(entries))
	return &Catalog{entries: entries}, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[full] = v
		case map[string]any:
			flatten(full, v, out)
		}
	}
}

// Get returns the text for a key. Unknown keys return the key itself so a
// missing entry is visible in chat instead of crashing the dialog.
func (c *Catalog) Get(key string) string {
	if text, ok := c.entries[key]; ok {
		return text
	}
	slog.Error("Text catalog missing key", "key", key)
	return key
}

// Getf returns the text for a key formatted with the given arguments.
func (c *Catalog) Getf(key string, args ...any) string {
	return fmt.Sprintf(c.Get(key), args...)
}

// Agreement returns the personal-data agreement with the chat title
// substituted in.
func (c *Catalog) Agreement(chatTitle string) string {
	return strings.ReplaceAll(c.Get("agreement"), ChatNamePlaceholder, chatTitle)
}
