// Package catalog provides the read-only voice catalog that maps a voice id
// to the provider serving it, the provider-specific argument and the
// language metadata shown in voice listings.
//
// A catalog is loaded once and never mutated afterwards, so a single
// *Catalog can be shared by any number of goroutines without locking.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed voices.json
var embeddedVoices []byte

// ErrInvalidCatalog is returned when catalog data does not match the schema.
var ErrInvalidCatalog = errors.New("invalid voice catalog")

// Args is a provider argument. Most providers take a single string; some
// take a fixed tuple.
type Args []string

// UnmarshalJSON accepts either a string or an array of strings.
func (a *Args) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = Args{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("arg must be a string or an array of strings: %w", err)
	}
	*a = many
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = Args{node.Value}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*a = many
		return nil
	default:
		return fmt.Errorf("line %d: arg must be a string or a list of strings", node.Line)
	}
}

// First returns the first argument or "".
func (a Args) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// Voice describes one catalog entry.
type Voice struct {
	ID       string `json:"-" yaml:"-"`
	Provider string `json:"source" yaml:"source"`
	Arg      Args   `json:"arg" yaml:"arg"`
	Language string `json:"language" yaml:"language"`
	// Lang is the provider locale when it differs from Language.
	Lang    string `json:"lang,omitempty" yaml:"lang,omitempty"`
	Desc    string `json:"desc" yaml:"desc"`
	Gender  string `json:"gender" yaml:"gender"`
	Country string `json:"country" yaml:"country"`
}

// Locale returns the locale sent to providers that need one.
func (v Voice) Locale() string {
	if v.Lang != "" {
		return v.Lang
	}
	return v.Language
}

// Catalog is an immutable voice table.
type Catalog struct {
	voices    map[string]Voice
	order     []string
	languages map[string]string
}

// New builds a catalog from voices in listing order.
func New(voices []Voice, languages map[string]string) *Catalog {
	c := &Catalog{
		voices:    make(map[string]Voice, len(voices)),
		order:     make([]string, 0, len(voices)),
		languages: make(map[string]string, len(languages)),
	}
	for _, v := range voices {
		if _, dup := c.voices[v.ID]; !dup {
			c.order = append(c.order, v.ID)
		}
		c.voices[v.ID] = v
	}
	for k, v := range languages {
		c.languages[k] = v
	}
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embeddedVoices)
	})
	return defaultCatalog, defaultErr
}

// LoadFile reads a JSON or YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return Parse(data)
	}
}

// Parse decodes catalog data. JSON is detected by a leading '{'; anything
// else is treated as YAML.
func Parse(data []byte) (*Catalog, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return parseJSON(data)
	}
	return parseYAML(data)
}

type jsonFile struct {
	Voices    map[string]Voice  `json:"voices"`
	Languages map[string]string `json:"languages"`
}

func parseJSON(data []byte) (*Catalog, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	order, err := jsonVoiceOrder(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	voices := make([]Voice, 0, len(order))
	for _, id := range order {
		v := f.Voices[id]
		v.ID = id
		voices = append(voices, v)
	}
	return New(voices, f.Languages), nil
}

// jsonVoiceOrder returns the keys of the "voices" object in document order.
func jsonVoiceOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if key, _ := tok.(string); key != "voices" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var ids []string
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			id, _ := tok.(string)
			ids = append(ids, id)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		return ids, nil
	}
	return nil, nil
}

type yamlFile struct {
	Voices    yaml.Node         `yaml:"voices"`
	Languages map[string]string `yaml:"languages"`
}

func parseYAML(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	content := f.Voices.Content
	voices := make([]Voice, 0, len(content)/2)
	for i := 0; i+1 < len(content); i += 2 {
		var v Voice
		if err := content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("voice %q: %w", content[i].Value, err)
		}
		v.ID = content[i].Value
		voices = append(voices, v)
	}
	return New(voices, f.Languages), nil
}

// Lookup resolves a voice id.
func (c *Catalog) Lookup(id string) (Voice, bool) {
	v, ok := c.voices[id]
	return v, ok
}

// Voices returns all voices in listing order.
func (c *Catalog) Voices() []Voice {
	out := make([]Voice, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.voices[id])
	}
	return out
}

// Len returns the number of voices.
func (c *Catalog) Len() int {
	return len(c.order)
}

// LanguageName returns the display name for a language code.
func (c *Catalog) LanguageName(code string) string {
	return c.languages[code]
}

// Providers returns the distinct provider tags referenced by the catalog.
func (c *Catalog) Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range c.order {
		p := c.voices[id].Provider
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
