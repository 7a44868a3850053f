package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/postcrab/postcrab/internal/errdef"
	"github.com/postcrab/postcrab/internal/request"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

const DefaultHighlightStyle = "monokai"

type Settings struct {
	DefaultTheme       string       `json:"default_theme"        toml:"default_theme"`
	DefaultMethod      string       `json:"default_method"       toml:"default_method"`
	DefaultContentType string       `json:"default_content_type" toml:"default_content_type"`
	HighlightStyle     string       `json:"highlight_style"      toml:"highlight_style"`
	LogFile            string       `json:"log_file"             toml:"log_file"`
	LogLevel           string       `json:"log_level"            toml:"log_level"`
	HTTP               HTTPSettings `json:"http"                 toml:"http"`
}

// HTTPSettings are optional transport overrides. The zero value keeps the
// transport defaults: no client timeout, redirects followed, system TLS roots.
type HTTPSettings struct {
	Timeout         string `json:"timeout,omitempty"          toml:"timeout,omitempty"`
	Insecure        bool   `json:"insecure,omitempty"         toml:"insecure,omitempty"`
	Proxy           string `json:"proxy,omitempty"            toml:"proxy,omitempty"`
	FollowRedirects *bool  `json:"follow_redirects,omitempty" toml:"follow_redirects,omitempty"`
}

type SettingsFormat string
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

// LoadSettings tries TOML first, then JSON, then returns defaults if neither
// exists. Parse errors fail immediately; a missing file skips to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, errdef.Wrap(
				errdef.CodeConfig,
				err,
				"parse settings %q",
				candidate.Path,
			)
		}
		return settings, candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, errdef.Wrap(errdef.CodeConfig, accumulated, "load settings")
	}

	return Settings{}, SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "ensure settings directory")
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return errdef.New(errdef.CodeConfig, "unsupported settings format %q", format)
	}
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "encode settings")
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write settings %q", path)
	}
	return nil
}

// Method returns the configured start-up method, GET when unset or unknown.
func (s Settings) Method() request.Method {
	if strings.TrimSpace(s.DefaultMethod) == "" {
		return request.MethodGet
	}
	m, err := request.ParseMethod(s.DefaultMethod)
	if err != nil {
		return request.MethodGet
	}
	return m
}

// ContentType returns the configured start-up content type, JSON when unset or unknown.
func (s Settings) ContentType() request.ContentType {
	if strings.TrimSpace(s.DefaultContentType) == "" {
		return request.ContentJSON
	}
	ct, err := request.ParseContentType(s.DefaultContentType)
	if err != nil {
		return request.ContentJSON
	}
	return ct
}

func (s Settings) Highlight() string {
	if style := strings.TrimSpace(s.HighlightStyle); style != "" {
		return style
	}
	return DefaultHighlightStyle
}

// LogPath is where the TUI writes diagnostics so they stay off the screen.
func (s Settings) LogPath() string {
	if path := strings.TrimSpace(s.LogFile); path != "" {
		return path
	}
	return filepath.Join(Dir(), "postcrab.log")
}

func (h HTTPSettings) TimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(h.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeConfig, err, "http timeout")
	}
	if d < 0 {
		return 0, errdef.New(errdef.CodeConfig, "http timeout must not be negative")
	}
	return d, nil
}

func (h HTTPSettings) Follow() bool {
	if h.FollowRedirects == nil {
		return true
	}
	return *h.FollowRedirects
}

// writeFileAtomic writes to a temp file then renames so readers never see a
// partial settings file.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".postcrab-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
