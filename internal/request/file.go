package request

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/postcrab/postcrab/internal/errdef"
)

// Draft is unvalidated request input, as typed into the UI or read from a file.
type Draft struct {
	Method      string `json:"method"       yaml:"method"       toml:"method"`
	ContentType string `json:"content_type" yaml:"content_type" toml:"content_type"`
	URL         string `json:"url"          yaml:"url"          toml:"url"`
	Body        string `json:"body"         yaml:"body"         toml:"body"`
}

// LoadDraft reads a request file. The format follows the extension:
// .yaml/.yml, .toml, anything else is treated as JSON.
func LoadDraft(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, errdef.Wrap(errdef.CodeFilesystem, err, "read request file %q", path)
	}
	return DecodeDraft(data, filepath.Ext(path))
}

func DecodeDraft(data []byte, ext string) (Draft, error) {
	var draft Draft
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &draft); err != nil {
			return Draft{}, errdef.Wrap(errdef.CodeConfig, err, "parse yaml request")
		}
	case ".toml":
		if err := toml.Unmarshal(data, &draft); err != nil {
			return Draft{}, errdef.Wrap(errdef.CodeConfig, err, "parse toml request")
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&draft); err != nil {
			return Draft{}, errdef.Wrap(errdef.CodeConfig, err, "parse json request")
		}
	}
	return draft, nil
}

// Selectors parses the draft's method and content type. Empty values fall
// back to GET and JSON.
func (d Draft) Selectors() (Method, ContentType, error) {
	method := MethodGet
	if strings.TrimSpace(d.Method) != "" {
		parsed, err := ParseMethod(d.Method)
		if err != nil {
			return MethodGet, ContentJSON, errdef.Wrap(errdef.CodeValidation, err, "request method")
		}
		method = parsed
	}

	contentType := ContentJSON
	if strings.TrimSpace(d.ContentType) != "" {
		parsed, err := ParseContentType(d.ContentType)
		if err != nil {
			return MethodGet, ContentJSON, errdef.Wrap(errdef.CodeValidation, err, "request content type")
		}
		contentType = parsed
	}
	return method, contentType, nil
}

// Spec resolves the draft's selectors and runs Validate.
func (d Draft) Spec() (Spec, error) {
	method, contentType, err := d.Selectors()
	if err != nil {
		return Spec{}, err
	}
	return Validate(d.URL, method, contentType, d.Body)
}
