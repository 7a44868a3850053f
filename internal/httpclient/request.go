package httpclient

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/postcrab/postcrab/internal/errdef"
	"github.com/postcrab/postcrab/internal/request"
)

const userAgent = "postcrab"

// buildRequest maps a validated spec onto an *http.Request. GET and DELETE
// never carry a body or a Content-Type header, even when the spec has one.
// URL syntax is checked here, not during validation.
func buildRequest(ctx context.Context, spec request.Spec) (*http.Request, error) {
	var body io.Reader
	if spec.Method.HasBody() {
		body = strings.NewReader(spec.Payload())
	}

	httpReq, err := http.NewRequestWithContext(ctx, spec.Method.String(), spec.URL, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}
	if spec.Method.HasBody() {
		httpReq.Header.Set("Content-Type", spec.ContentType.MIME())
	}
	httpReq.Header.Set("User-Agent", userAgent)
	return httpReq, nil
}
