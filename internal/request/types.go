package request

import (
	"fmt"
	"strings"
)

type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodDelete
	MethodPut
	MethodPatch
)

var methodNames = [...]string{
	MethodGet:    "GET",
	MethodPost:   "POST",
	MethodDelete: "DELETE",
	MethodPut:    "PUT",
	MethodPatch:  "PATCH",
}

// Methods returns every method in selector order.
func Methods() []Method {
	return []Method{MethodGet, MethodPost, MethodDelete, MethodPut, MethodPatch}
}

// MethodAt maps a selector index to a method. Out of range indices select GET.
func MethodAt(index int) Method {
	if index < 0 || index >= len(methodNames) {
		return MethodGet
	}
	return Method(index)
}

func ParseMethod(raw string) (Method, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	for i, name := range methodNames {
		if name == value {
			return Method(i), nil
		}
	}
	return MethodGet, fmt.Errorf("unsupported method %q", raw)
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// HasBody reports whether requests with this method carry a payload.
// GET and DELETE never do.
func (m Method) HasBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// Next cycles through the selector order.
func (m Method) Next() Method {
	return MethodAt((int(m) + 1) % len(methodNames))
}

type ContentType int

const (
	ContentJSON ContentType = iota
	ContentText
	ContentXML
	ContentForm
)

var contentTypeNames = [...]string{
	ContentJSON: "JSON",
	ContentText: "Text",
	ContentXML:  "XML",
	ContentForm: "Form",
}

var contentTypeMIME = [...]string{
	ContentJSON: "application/json",
	ContentText: "text/plain",
	ContentXML:  "application/xml",
	ContentForm: "application/x-www-form-urlencoded",
}

func ContentTypes() []ContentType {
	return []ContentType{ContentJSON, ContentText, ContentXML, ContentForm}
}

// ContentTypeAt maps a selector index to a content type. Out of range indices select JSON.
func ContentTypeAt(index int) ContentType {
	if index < 0 || index >= len(contentTypeNames) {
		return ContentJSON
	}
	return ContentType(index)
}

// ParseContentType accepts either the short name ("json", "Form") or the MIME string.
func ParseContentType(raw string) (ContentType, error) {
	value := strings.TrimSpace(raw)
	for i, name := range contentTypeNames {
		if strings.EqualFold(name, value) || strings.EqualFold(contentTypeMIME[i], value) {
			return ContentType(i), nil
		}
	}
	return ContentJSON, fmt.Errorf("unsupported content type %q", raw)
}

func (c ContentType) String() string {
	if c < 0 || int(c) >= len(contentTypeNames) {
		return fmt.Sprintf("ContentType(%d)", int(c))
	}
	return contentTypeNames[c]
}

func (c ContentType) MIME() string {
	if c < 0 || int(c) >= len(contentTypeMIME) {
		return contentTypeMIME[ContentJSON]
	}
	return contentTypeMIME[c]
}

func (c ContentType) Next() ContentType {
	return ContentTypeAt((int(c) + 1) % len(contentTypeNames))
}
