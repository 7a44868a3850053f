package httpclient

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/postcrab/postcrab/internal/errdef"
)

// readText drains the body and returns it as text. A known charset parameter
// on Content-Type is honoured; unknown labels leave the bytes as they are.
// Anything that still is not UTF-8 is an error.
func readText(resp *http.Response) (string, int, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", len(raw), errdef.Wrap(errdef.CodeHTTP, err, "read response body")
	}
	text, err := decodeText(raw, resp.Header.Get("Content-Type"))
	return text, len(raw), err
}

func decodeText(raw []byte, contentType string) (string, error) {
	if label := charsetLabel(contentType); label != "" && !isUTF8Label(label) {
		if reader, err := charset.NewReaderLabel(label, bytes.NewReader(raw)); err == nil {
			decoded, err := io.ReadAll(reader)
			if err != nil {
				return "", errdef.Wrap(errdef.CodeHTTP, err, "decode response body")
			}
			raw = decoded
		}
	}
	if !utf8.Valid(raw) {
		return "", errdef.New(errdef.CodeHTTP, "decode response body: not valid UTF-8 text")
	}
	return string(raw), nil
}

func charsetLabel(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

func isUTF8Label(label string) bool {
	switch label {
	case "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}
