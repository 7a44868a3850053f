package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/postcrab/postcrab/internal/logging"
	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/telemetry"
)

type captured struct {
	mu          sync.Mutex
	method      string
	contentType string
	hasCT       bool
	body        string
}

func (c *captured) snapshot() captured {
	c.mu.Lock()
	defer c.mu.Unlock()
	return captured{method: c.method, contentType: c.contentType, hasCT: c.hasCT, body: c.body}
}

func newEchoServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen.mu.Lock()
		seen.method = r.Method
		_, seen.hasCT = r.Header["Content-Type"]
		seen.contentType = r.Header.Get("Content-Type")
		seen.body = string(data)
		seen.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func mustSpec(t *testing.T, url string, method request.Method, ct request.ContentType, body string) request.Spec {
	t.Helper()
	spec, err := request.Validate(url, method, ct, body)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return spec
}

func TestDispatchOmitsBodyForGetAndDelete(t *testing.T) {
	for _, method := range []request.Method{request.MethodGet, request.MethodDelete} {
		t.Run(method.String(), func(t *testing.T) {
			srv, seen := newEchoServer(t, http.StatusOK, "ok")
			client := NewClient(DefaultOptions())

			out := client.Dispatch(context.Background(), mustSpec(t, srv.URL, method, request.ContentXML, "<a/>"))
			if !out.OK {
				t.Fatalf("expected success, got failure %q", out.Message)
			}
			got := seen.snapshot()
			if got.method != method.String() {
				t.Fatalf("expected method %s, got %s", method, got.method)
			}
			if got.hasCT {
				t.Fatalf("expected no Content-Type header, got %q", got.contentType)
			}
			if got.body != "" {
				t.Fatalf("expected empty body, got %q", got.body)
			}
			if out.Body != "ok" {
				t.Fatalf("expected body ok, got %q", out.Body)
			}
		})
	}
}

func TestDispatchSendsBodyWithContentType(t *testing.T) {
	cases := []struct {
		method request.Method
		ct     request.ContentType
		body   string
		mime   string
	}{
		{request.MethodPost, request.ContentJSON, `{"a":1}`, "application/json"},
		{request.MethodPut, request.ContentText, "plain words", "text/plain"},
		{request.MethodPatch, request.ContentXML, "<a/>", "application/xml"},
		{request.MethodPost, request.ContentForm, "a=1&b=2", "application/x-www-form-urlencoded"},
	}
	for _, tc := range cases {
		t.Run(tc.method.String()+"/"+tc.ct.String(), func(t *testing.T) {
			srv, seen := newEchoServer(t, http.StatusOK, "done")
			client := NewClient(DefaultOptions())

			out := client.Dispatch(context.Background(), mustSpec(t, srv.URL, tc.method, tc.ct, tc.body))
			if !out.OK {
				t.Fatalf("expected success, got failure %q", out.Message)
			}
			got := seen.snapshot()
			if got.contentType != tc.mime {
				t.Fatalf("expected Content-Type %q, got %q", tc.mime, got.contentType)
			}
			if got.body != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, got.body)
			}
		})
	}
}

func TestDispatchSendsEmptyBodyWhenAbsent(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusOK, "")
	client := NewClient(DefaultOptions())

	out := client.Dispatch(context.Background(), mustSpec(t, srv.URL, request.MethodPost, request.ContentJSON, ""))
	if !out.OK {
		t.Fatalf("expected success, got failure %q", out.Message)
	}
	got := seen.snapshot()
	if got.contentType != "application/json" {
		t.Fatalf("expected json Content-Type, got %q", got.contentType)
	}
	if got.body != "" {
		t.Fatalf("expected empty body, got %q", got.body)
	}
	if out.Body != "" {
		t.Fatalf("expected empty response text, got %q", out.Body)
	}
}

func TestDispatchErrorStatusIsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		srv, _ := newEchoServer(t, status, "not found")
		client := NewClient(DefaultOptions())

		out := client.Dispatch(context.Background(), mustSpec(t, srv.URL, request.MethodGet, request.ContentJSON, ""))
		if !out.OK {
			t.Fatalf("status %d: expected success, got failure %q", status, out.Message)
		}
		if out.Body != "not found" {
			t.Fatalf("status %d: expected body %q, got %q", status, "not found", out.Body)
		}
		if out.StatusCode != status {
			t.Fatalf("expected status code %d, got %d", status, out.StatusCode)
		}
	}
}

func TestDispatchUnreachableHostFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(DefaultOptions())
	out := client.Dispatch(context.Background(), mustSpec(t, url, request.MethodGet, request.ContentJSON, ""))
	if out.OK {
		t.Fatalf("expected failure for closed server")
	}
	if strings.TrimSpace(out.Message) == "" {
		t.Fatalf("expected a failure message")
	}
}

func TestDispatchMalformedURLFails(t *testing.T) {
	client := NewClient(DefaultOptions())
	for _, raw := range []string{"::not a url", "ftp//missing-colon", "gopher://example.com"} {
		out := client.Dispatch(context.Background(), mustSpec(t, raw, request.MethodGet, request.ContentJSON, ""))
		if out.OK {
			t.Fatalf("%q: expected failure", raw)
		}
		if out.Message == "" {
			t.Fatalf("%q: expected failure message", raw)
		}
	}
}

func TestDispatchScenarioPostJSON(t *testing.T) {
	srv, seen := newEchoServer(t, http.StatusCreated, `{"ok":true}`)
	client := NewClient(DefaultOptions())

	spec := mustSpec(t, "  "+srv.URL+"  ", request.MethodPost, request.ContentJSON, `{"a":1}`)
	out := client.Dispatch(context.Background(), spec)
	if !out.OK || out.Body != `{"ok":true}` {
		t.Fatalf("unexpected outcome %+v", out)
	}
	got := seen.snapshot()
	if got.method != http.MethodPost || got.contentType != "application/json" || got.body != `{"a":1}` {
		t.Fatalf("unexpected request seen by server: %+v", &got)
	}
	if out.Duration <= 0 {
		t.Fatalf("expected duration to be recorded")
	}
}

func TestDispatchDecodesDeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte("caf\xe9"))
	}))
	defer srv.Close()

	out := NewClient(DefaultOptions()).Dispatch(
		context.Background(),
		mustSpec(t, srv.URL, request.MethodGet, request.ContentText, ""),
	)
	if !out.OK {
		t.Fatalf("expected success, got %q", out.Message)
	}
	if out.Body != "café" {
		t.Fatalf("expected decoded body, got %q", out.Body)
	}
}

func TestDispatchUnknownCharsetKeepsUTF8Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=x-unknown-enc")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	out := NewClient(DefaultOptions()).Dispatch(
		context.Background(),
		mustSpec(t, srv.URL, request.MethodGet, request.ContentText, ""),
	)
	if !out.OK {
		t.Fatalf("expected success, got %q", out.Message)
	}
	if out.Body != "hello" {
		t.Fatalf("expected raw body, got %q", out.Body)
	}
}

func TestDispatchRejectsInvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0xff, 0xfe, 0x00, 0x80})
	}))
	defer srv.Close()

	out := NewClient(DefaultOptions()).Dispatch(
		context.Background(),
		mustSpec(t, srv.URL, request.MethodGet, request.ContentJSON, ""),
	)
	if out.OK {
		t.Fatalf("expected failure for binary body")
	}
	if !strings.Contains(out.Message, "UTF-8") {
		t.Fatalf("expected UTF-8 failure message, got %q", out.Message)
	}
}

func TestDispatchCancelledContextFails(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan request.Outcome, 1)
	go func() {
		done <- NewClient(DefaultOptions()).Dispatch(ctx, mustSpec(t, srv.URL, request.MethodGet, request.ContentJSON, ""))
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case out := <-done:
		if out.OK {
			t.Fatalf("expected failure after cancel")
		}
		if !strings.Contains(out.Message, "context canceled") {
			t.Fatalf("expected cancellation message, got %q", out.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("dispatch did not return after cancel")
	}
}

func TestDispatchTimeoutOption(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond
	out := NewClient(opts).Dispatch(context.Background(), mustSpec(t, srv.URL, request.MethodGet, request.ContentJSON, ""))
	if out.OK {
		t.Fatalf("expected timeout failure")
	}
	if !strings.Contains(out.Message, "Client.Timeout") {
		t.Fatalf("expected client timeout message, got %q", out.Message)
	}
}

func TestDispatchRedirectPolicy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "moved here")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	spec := mustSpec(t, srv.URL+"/old", request.MethodGet, request.ContentJSON, "")

	followed := NewClient(DefaultOptions()).Dispatch(context.Background(), spec)
	if !followed.OK || followed.Body != "moved here" {
		t.Fatalf("expected redirect to be followed, got %+v", followed)
	}

	stopped := NewClient(Options{}).Dispatch(context.Background(), spec)
	if !stopped.OK || stopped.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 success without following, got %+v", stopped)
	}
}

func TestDispatchUsesHTTPFactory(t *testing.T) {
	client := NewClient(DefaultOptions())
	var gotOpts Options
	client.SetHTTPFactory(func(opts Options) (*http.Client, error) {
		gotOpts = opts
		transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				Status:     "418 I'm a teapot",
				StatusCode: http.StatusTeapot,
				Proto:      "HTTP/1.1",
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader("short and stout")),
				Request:    req,
			}, nil
		})
		return &http.Client{Transport: transport}, nil
	})

	out := client.Dispatch(context.Background(), mustSpec(t, "https://example.com", request.MethodGet, request.ContentJSON, ""))
	if !out.OK || out.Body != "short and stout" || out.Status != "418 I'm a teapot" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !gotOpts.FollowRedirects {
		t.Fatalf("expected client options to reach the factory")
	}
}

func TestDispatchFactoryErrorFails(t *testing.T) {
	client := NewClient(DefaultOptions())
	client.SetHTTPFactory(func(Options) (*http.Client, error) {
		return nil, errors.New("no transport today")
	})
	out := client.Dispatch(context.Background(), mustSpec(t, "https://example.com", request.MethodGet, request.ContentJSON, ""))
	if out.OK || out.Message != "no transport today" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestDispatchLogsSummaryAndResponse(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusOK, "pong")
	var buf bytes.Buffer
	logger, closeLog, err := logging.New(logging.Options{Output: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	defer func() { _ = closeLog() }()

	client := NewClient(DefaultOptions())
	client.SetLogger(logger)
	client.newID = func() string { return "req-1" }

	spec := mustSpec(t, srv.URL, request.MethodPost, request.ContentJSON, `{"a":1}`)
	out := client.Dispatch(context.Background(), spec)
	if !out.OK {
		t.Fatalf("expected success, got %q", out.Message)
	}

	logs := buf.String()
	if !strings.Contains(logs, "POST "+srv.URL+" JSON {") {
		t.Fatalf("expected summary line in logs, got:\n%s", logs)
	}
	if !strings.Contains(logs, "msg=pong") {
		t.Fatalf("expected response text in logs, got:\n%s", logs)
	}
	if !strings.Contains(logs, "request_id=req-1") {
		t.Fatalf("expected request id in logs, got:\n%s", logs)
	}
}

func TestDispatchEmitsSpan(t *testing.T) {
	srv, _ := newEchoServer(t, http.StatusNotFound, "missing")
	recorder := tracetest.NewSpanRecorder()
	inst, err := telemetry.New(telemetry.Config{}, telemetry.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("telemetry.New: %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	client := NewClient(DefaultOptions())
	client.SetTelemetry(inst)
	out := client.Dispatch(context.Background(), mustSpec(t, srv.URL, request.MethodGet, request.ContentJSON, ""))
	if !out.OK {
		t.Fatalf("expected success, got %q", out.Message)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("expected error span status for 404, got %v", spans[0].Status().Code)
	}
}

func TestDispatchMalformedURLEmitsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := telemetry.New(telemetry.Config{}, telemetry.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("telemetry.New: %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	client := NewClient(DefaultOptions())
	client.SetTelemetry(inst)
	out := client.Dispatch(context.Background(), mustSpec(t, "::not a url", request.MethodGet, request.ContentJSON, ""))
	if out.OK {
		t.Fatalf("expected failure for malformed url")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("expected error span status, got %v", spans[0].Status().Code)
	}
}

func TestDispatchReleasesConnections(t *testing.T) {
	var open int64
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		switch state {
		case http.StateNew:
			atomic.AddInt64(&open, 1)
		case http.StateClosed, http.StateHijacked:
			atomic.AddInt64(&open, -1)
		}
	}
	srv.Start()
	defer srv.Close()

	client := NewClient(DefaultOptions())
	for i := 0; i < 10; i++ {
		out := client.Dispatch(context.Background(), mustSpec(t, srv.URL, request.MethodGet, request.ContentJSON, ""))
		if !out.OK {
			t.Fatalf("dispatch %d failed: %q", i, out.Message)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&open) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := atomic.LoadInt64(&open); n != 0 {
		t.Fatalf("expected every connection to be closed, %d still open", n)
	}
}

func TestDispatchConcurrentCallsAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	client := NewClient(DefaultOptions())
	var wg sync.WaitGroup
	bodies := []string{"one", "two", "three", "four"}
	results := make([]request.Outcome, len(bodies))
	for i, body := range bodies {
		wg.Add(1)
		go func(i int, body string) {
			defer wg.Done()
			spec, err := request.Validate(srv.URL, request.MethodPut, request.ContentText, body)
			if err != nil {
				t.Errorf("validate: %v", err)
				return
			}
			results[i] = client.Dispatch(context.Background(), spec)
		}(i, body)
	}
	wg.Wait()

	for i, body := range bodies {
		if results[i].Body != body {
			t.Fatalf("dispatch %d: expected echo %q, got %+v", i, body, results[i])
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}
