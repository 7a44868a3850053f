package request

import (
	"strings"

	"github.com/postcrab/postcrab/internal/errdef"
)

var ErrEmptyURL = errdef.New(errdef.CodeValidation, "URL must not be empty.")

// Spec is a validated request. Body is nil when the user left the body empty.
// Dispatch ignores Body for methods that carry no payload.
type Spec struct {
	URL         string
	Method      Method
	ContentType ContentType
	Body        *string
}

// Validate turns raw UI state into a Spec. The only failure is an empty URL;
// scheme and syntax problems surface later from the transport.
func Validate(rawURL string, method Method, contentType ContentType, rawBody string) (Spec, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return Spec{}, ErrEmptyURL
	}

	spec := Spec{URL: url, Method: method, ContentType: contentType}
	if rawBody != "" {
		body := rawBody
		spec.Body = &body
	}
	return spec, nil
}

func (s Spec) Equal(other Spec) bool {
	if s.URL != other.URL || s.Method != other.Method || s.ContentType != other.ContentType {
		return false
	}
	if s.Body == nil || other.Body == nil {
		return s.Body == nil && other.Body == nil
	}
	return *s.Body == *other.Body
}

// Payload is the body that goes on the wire: empty for GET/DELETE and for a
// missing body.
func (s Spec) Payload() string {
	if !s.Method.HasBody() || s.Body == nil {
		return ""
	}
	return *s.Body
}

// Summary is the one-line diagnostic form "<METHOD> <url> <ContentType> <body|None>".
func (s Spec) Summary() string {
	body := "None"
	if s.Body != nil {
		body = *s.Body
	}
	return s.Method.String() + " " + s.URL + " " + s.ContentType.String() + " " + body
}
