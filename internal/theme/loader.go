package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/postcrab/postcrab/internal/errdef"
)

type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceUser    Source = "user"
)

type Format string

const (
	FormatBuiltin Format = "builtin"
	FormatJSON    Format = "json"
	FormatTOML    Format = "toml"
	FormatYAML    Format = "yaml"
)

// Definition is one selectable theme together with where it came from.
type Definition struct {
	Key         string
	DisplayName string
	Metadata    Metadata
	Theme       Theme
	Source      Source
	Format      Format
	Path        string
}

// Catalog is an ordered set of themes addressed by key.
type Catalog struct {
	defs []Definition
	keys map[string]int
}

func (c Catalog) All() []Definition {
	return append([]Definition(nil), c.defs...)
}

func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.defs))
	for _, def := range c.defs {
		keys = append(keys, def.Key)
	}
	return keys
}

func (c Catalog) Get(key string) (Definition, bool) {
	idx, ok := c.keys[key]
	if !ok {
		return Definition{}, false
	}
	return c.defs[idx], true
}

// Resolve returns the theme stored under key, falling back to the first
// entry in the catalog. An empty catalog resolves key among the built-ins.
func (c Catalog) Resolve(key string) Theme {
	if def, ok := c.Get(strings.ToLower(strings.TrimSpace(key))); ok {
		return def.Theme
	}
	if len(c.defs) > 0 {
		return c.defs[0].Theme
	}
	return Lookup(key)
}

func newCatalog(defs []Definition) Catalog {
	c := Catalog{defs: defs, keys: make(map[string]int, len(defs))}
	for i, def := range defs {
		c.keys[def.Key] = i
	}
	return c
}

func builtinDefinitions() []Definition {
	builtin := func(key, name string, th Theme) Definition {
		return Definition{
			Key:         key,
			DisplayName: name,
			Metadata:    Metadata{Name: name},
			Theme:       th,
			Source:      SourceBuiltin,
			Format:      FormatBuiltin,
		}
	}
	return []Definition{
		builtin("dark", "Dark", DefaultTheme()),
		builtin("light", "Light", LightTheme()),
	}
}

func formatForExt(ext string) (Format, bool) {
	switch strings.ToLower(ext) {
	case ".toml":
		return FormatTOML, true
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// LoadCatalog returns the built-in themes followed by the theme files found
// in dirs, sorted by display name. Missing directories are skipped. Files
// that fail to load are left out and reported in the returned error, which
// never invalidates the catalog.
func LoadCatalog(dirs []string) (Catalog, error) {
	builtins := builtinDefinitions()
	used := make(map[string]bool, len(builtins))
	for _, def := range builtins {
		used[def.Key] = true
	}

	var (
		user []Definition
		errs []error
	)
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("read directory %q: %w", dir, err))
			continue
		}
		for _, entry := range entries {
			format, ok := formatForExt(filepath.Ext(entry.Name()))
			if entry.IsDir() || !ok {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			def, err := loadUserTheme(path, format)
			if err != nil {
				errs = append(errs, fmt.Errorf("%q: %w", path, err))
				continue
			}
			def.Key = uniqueKey(def.Key, used)
			if def.DisplayName == "" {
				def.DisplayName = displayNameFor(def.Key)
			}
			user = append(user, def)
		}
	}

	sort.SliceStable(user, func(i, j int) bool {
		left, right := strings.ToLower(user[i].DisplayName), strings.ToLower(user[j].DisplayName)
		if left != right {
			return left < right
		}
		return user[i].Key < user[j].Key
	})

	catalog := newCatalog(append(builtins, user...))
	if len(errs) > 0 {
		return catalog, errdef.Wrap(errdef.CodeConfig, errors.Join(errs...), "load themes")
	}
	return catalog, nil
}

func loadUserTheme(path string, format Format) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}
	spec, err := decodeThemeSpec(data, format)
	if err != nil {
		return Definition{}, err
	}
	th, err := ApplySpec(spec)
	if err != nil {
		return Definition{}, err
	}

	var meta Metadata
	if spec.Metadata != nil {
		meta = *spec.Metadata
	}
	key := slugify(meta.Name)
	if key == "" {
		key = slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return Definition{
		Key:         key,
		DisplayName: strings.TrimSpace(meta.Name),
		Metadata:    meta,
		Theme:       th,
		Source:      SourceUser,
		Format:      format,
		Path:        path,
	}, nil
}

func decodeThemeSpec(data []byte, format Format) (ThemeSpec, error) {
	var spec ThemeSpec
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return ThemeSpec{}, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &spec); err != nil {
			return ThemeSpec{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return ThemeSpec{}, err
		}
	default:
		return ThemeSpec{}, fmt.Errorf("unsupported theme format %q", format)
	}
	return spec, nil
}

// uniqueKey appends -1, -2, ... until key is unused, then claims it.
func uniqueKey(key string, used map[string]bool) string {
	if key == "" {
		key = "theme"
	}
	candidate := key
	for n := 1; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", key, n)
	}
	used[candidate] = true
	return candidate
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !dash {
				b.WriteRune('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func displayNameFor(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '-' })
	if len(words) == 0 {
		return "Theme"
	}
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
