// Package i18n holds the console's message catalogs and picks a locale for
// a request. Catalogs are YAML files embedded in the binary and registered
// with golang.org/x/text/message.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when nothing better matches.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var embedded embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle is a set of locale catalogs.
type Bundle struct {
	builder  *catalog.Builder
	tags     []language.Tag
	keys     map[language.Tag]map[string]struct{}
	matcher  language.Matcher
	fallback language.Tag
}

// Load reads every locales/*.yaml file in fsys. fallback must be one of the
// loaded locales.
func Load(fsys fs.FS, fallback string) (*Bundle, error) {
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("i18n: parse fallback locale %q: %w", fallback, err)
	}

	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n: glob catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("i18n: no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(fb)),
		keys:     make(map[language.Tag]map[string]struct{}),
		fallback: fb,
	}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", path, err)
		}
		if err := b.add(path, file); err != nil {
			return nil, err
		}
	}

	if _, ok := b.keys[fb]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %s has no catalog", fb)
	}

	// The matcher prefers its first tag on ties, so the fallback goes first.
	sort.SliceStable(b.tags, func(i, j int) bool { return b.tags[i] == fb && b.tags[j] != fb })
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(path string, file catalogFile) error {
	tag, err := language.Parse(strings.TrimSpace(file.Locale))
	if err != nil {
		return fmt.Errorf("i18n: %s: bad locale %q: %w", path, file.Locale, err)
	}
	if _, dup := b.keys[tag]; dup {
		return fmt.Errorf("i18n: %s: locale %s defined twice", path, tag)
	}
	keys := make(map[string]struct{}, len(file.Messages))
	for key, msg := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("i18n: %s: blank message key", path)
		}
		if err := b.builder.SetString(tag, key, msg); err != nil {
			return fmt.Errorf("i18n: %s: %s: %w", path, key, err)
		}
		keys[key] = struct{}{}
	}
	b.keys[tag] = keys
	b.tags = append(b.tags, tag)
	return nil
}

// Embedded loads the built-in catalogs with the given fallback. When
// locales are listed only those are offered, and each needs a catalog.
func Embedded(fallback string, locales ...string) (*Bundle, error) {
	b, err := Load(embedded, fallback)
	if err != nil || len(locales) == 0 {
		return b, err
	}
	return b.restrict(locales)
}

func (b *Bundle) restrict(locales []string) (*Bundle, error) {
	keep := make([]language.Tag, 0, len(locales))
	keys := make(map[language.Tag]map[string]struct{}, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(strings.TrimSpace(l))
		if err != nil {
			return nil, fmt.Errorf("i18n: parse locale %q: %w", l, err)
		}
		k, ok := b.keys[tag]
		if !ok {
			return nil, fmt.Errorf("i18n: locale %s has no catalog", tag)
		}
		if _, dup := keys[tag]; dup {
			continue
		}
		keys[tag] = k
		keep = append(keep, tag)
	}
	if _, ok := keys[b.fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %s is not offered", b.fallback)
	}
	sort.SliceStable(keep, func(i, j int) bool { return keep[i] == b.fallback && keep[j] != b.fallback })
	return &Bundle{
		builder:  b.builder,
		tags:     keep,
		keys:     keys,
		matcher:  language.NewMatcher(keep),
		fallback: b.fallback,
	}, nil
}

var defaultBundle = mustLoadEmbedded()

func mustLoadEmbedded() *Bundle {
	b, err := Load(embedded, DefaultLocale)
	if err != nil {
		panic(err)
	}
	return b
}

// Default returns the bundle built from the embedded catalogs.
func Default() *Bundle {
	return defaultBundle
}

// Supported returns the loaded locales, fallback first.
func (b *Bundle) Supported() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Fallback returns the fallback locale.
func (b *Bundle) Fallback() language.Tag {
	return b.fallback
}

// Match returns the best supported locale for the first candidate that
// matches at all. A candidate is a locale ("ar", "en-US") or an
// Accept-Language header value.
func (b *Bundle) Match(candidates ...string) language.Tag {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(c)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := b.matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return b.tags[idx]
	}
	return b.fallback
}

// Supports reports whether locale has its own catalog.
func (b *Bundle) Supports(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	_, ok := b.keys[tag]
	return ok
}

// Has reports whether tag's catalog defines key.
func (b *Bundle) Has(tag language.Tag, key string) bool {
	_, ok := b.keys[tag][key]
	return ok
}

// Keys returns the sorted message keys of tag's catalog.
func (b *Bundle) Keys(tag language.Tag) []string {
	out := make([]string, 0, len(b.keys[tag]))
	for k := range b.keys[tag] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Printer returns a printer that formats catalog messages for tag.
func (b *Bundle) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(b.builder))
}
