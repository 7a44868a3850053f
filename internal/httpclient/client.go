package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/postcrab/postcrab/internal/errdef"
	"github.com/postcrab/postcrab/internal/logging"
	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/telemetry"
)

// StatusAgnosticSuccess records that any HTTP status, 4xx and 5xx included,
// produces a Success outcome. Only transport and decoding problems fail.
const StatusAgnosticSuccess = true

// Options tune the transport. The zero value is the plain default transport
// with redirects disabled; NewClient callers normally set FollowRedirects.
type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	ProxyURL           string
}

func DefaultOptions() Options {
	return Options{FollowRedirects: true}
}

type Client struct {
	opts        Options
	httpFactory func(Options) (*http.Client, error)
	telemetry   telemetry.Instrumenter
	logger      logrus.FieldLogger
	newID       func() string
}

func (c *Client) resolveHTTPFactory() func(Options) (*http.Client, error) {
	if c == nil {
		return nil
	}
	if c.httpFactory != nil {
		return c.httpFactory
	}
	return buildHTTPClient
}

func NewClient(opts Options) *Client {
	return &Client{
		opts:        opts,
		httpFactory: buildHTTPClient,
		telemetry:   telemetry.Noop(),
		logger:      logging.Discard(),
		newID:       uuid.NewString,
	}
}

// SetHTTPFactory allows callers to override how http.Client instances are created.
// Passing nil restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	c.httpFactory = factory
}

// SetTelemetry configures the instrumenter used to emit OpenTelemetry spans. Passing nil restores the no-op implementation.
func (c *Client) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	c.telemetry = instr
}

func (c *Client) SetLogger(logger logrus.FieldLogger) {
	c.logger = logging.OrDiscard(logger)
}

// Dispatch performs one HTTP exchange for spec and never returns an error:
// every problem is folded into a Failure outcome. It is safe to call from
// many goroutines at once. A fresh transport is built per call, so nothing
// carries over between dispatches.
func (c *Client) Dispatch(ctx context.Context, spec request.Spec) (out request.Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := c.newID()
	log := c.logger.WithField("request_id", requestID)
	log.Info(spec.Summary())

	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
	}()

	httpReq, err := buildRequest(ctx, spec)
	if err != nil {
		_, span := c.telemetry.Start(ctx, telemetry.RequestStart{Spec: spec, RequestID: requestID})
		span.End(telemetry.RequestResult{Err: err})
		log.WithError(err).Warn("request rejected")
		return request.Failure(err.Error())
	}

	factory := c.resolveHTTPFactory()
	if factory == nil {
		return request.Failure(errdef.New(errdef.CodeHTTP, "http client factory unavailable").Error())
	}
	client, err := factory(c.opts)
	if err != nil {
		log.WithError(err).Warn("transport unavailable")
		return request.Failure(err.Error())
	}
	// The transport lives for this call only; drop its connections once the
	// body has been read.
	defer client.CloseIdleConnections()

	spanCtx, span := c.telemetry.Start(httpReq.Context(), telemetry.RequestStart{
		Spec:        spec,
		HTTPRequest: httpReq,
		RequestID:   requestID,
	})
	httpReq = httpReq.WithContext(spanCtx)

	resp, err := client.Do(httpReq)
	if err != nil {
		span.End(telemetry.RequestResult{Err: err})
		log.WithError(err).Warn("request failed")
		return request.Failure(err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	text, size, err := readText(resp)
	span.End(telemetry.RequestResult{Err: err, StatusCode: resp.StatusCode, BodyBytes: size})
	if err != nil {
		log.WithError(err).WithField("status", resp.StatusCode).Warn("response unreadable")
		return request.Failure(err.Error())
	}

	log.WithField("status", resp.StatusCode).Info(text)
	return request.Success(text, resp.StatusCode, resp.Status)
}
