package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the content API the blog was built against.
	DefaultBaseURL = "https://frontend-case-api.sbdev.nl"

	// DefaultTokenHeader is the header that carries the API token.
	DefaultTokenHeader = "token"

	tracerName = "github.com/vango-dev/blogfront/pkg/upstream"
)

// Operation names, used in errors, spans and metrics.
const (
	OpCreatePost = "create_post"
	OpCategories = "categories"
	OpPosts      = "posts"
)

// errRelayDone unblocks the multipart writer once the request is over.
var errRelayDone = errors.New("upstream: request finished")

// Options configures a Client.
type Options struct {
	// BaseURL is the content API root. Default: DefaultBaseURL.
	BaseURL string

	// Token is sent on every call in TokenHeader.
	Token string

	// TokenHeader defaults to DefaultTokenHeader.
	TokenHeader string

	// HTTPClient defaults to a client without a timeout.
	HTTPClient *http.Client

	// Timeout bounds each call. Zero leaves it to the transport.
	Timeout time.Duration

	// Observe, if set, is called after every call with the operation, the
	// upstream status (0 on transport failure) and the elapsed time.
	Observe func(op string, status int, elapsed time.Duration)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to the content API.
type Client struct {
	baseURL     string
	token       string
	tokenHeader string
	http        *http.Client
	timeout     time.Duration
	observe     func(string, int, time.Duration)
	tracer      trace.Tracer
	logger      *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TokenHeader == "" {
		opts.TokenHeader = DefaultTokenHeader
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       opts.Token,
		tokenHeader: opts.TokenHeader,
		http:        opts.HTTPClient,
		timeout:     opts.Timeout,
		observe:     opts.Observe,
		tracer:      otel.Tracer(tracerName),
		logger:      opts.Logger.With("component", "upstream"),
	}
}

// Response is a successful upstream answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewPost is the payload for CreatePost.
type NewPost struct {
	Title      string
	Content    string
	CategoryID string

	// Image is streamed into the "image" part.
	Image     io.Reader
	ImageName string
	ImageType string
}

// CreatePost sends POST /api/posts as multipart/form-data. The image is
// streamed; nothing is buffered in full. Image is not read after
// CreatePost returns.
func (c *Client) CreatePost(ctx context.Context, p NewPost) (*Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writePostForm(mw, p))
	}()

	resp, err := c.do(ctx, OpCreatePost, http.MethodPost, "/api/posts", nil, pr, mw.FormDataContentType())

	// The transport may stop reading early (error, early response).
	pr.CloseWithError(errRelayDone)
	<-done

	return resp, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writePostForm(mw *multipart.Writer, p NewPost) error {
	for _, f := range [][2]string{
		{"title", p.Title},
		{"content", p.Content},
		{"category_id", p.CategoryID},
	} {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	if p.Image != nil {
		name := p.ImageName
		if name == "" {
			name = "upload"
		}
		contentType := p.ImageType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(name)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, p.Image); err != nil {
			return err
		}
	}

	return mw.Close()
}

// Categories sends GET /api/categories.
func (c *Client) Categories(ctx context.Context) (*Response, error) {
	return c.do(ctx, OpCategories, http.MethodGet, "/api/categories", nil, nil, "")
}

// Posts sends GET /api/posts with the query's parameters.
func (c *Client) Posts(ctx context.Context, q PostsQuery) (*Response, error) {
	return c.do(ctx, OpPosts, http.MethodGet, "/api/posts", q.Values(), nil, "")
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "upstream "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set(c.tokenHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.finish(ctx, op, 0, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.finish(ctx, op, 0, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	c.finish(ctx, op, resp.StatusCode, start)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &Error{Op: op, Status: resp.StatusCode, Body: data}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) finish(ctx context.Context, op string, status int, start time.Time) {
	elapsed := time.Since(start)
	if c.observe != nil {
		c.observe(op, status, elapsed)
	}
	c.logger.DebugContext(ctx, "upstream call", "op", op, "status", status, "duration", elapsed)
}
