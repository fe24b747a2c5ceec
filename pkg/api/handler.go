package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/vango-dev/blogfront/internal/errors"
	"github.com/vango-dev/blogfront/pkg/upload"
	"github.com/vango-dev/blogfront/pkg/upstream"
)

// Upstream is the content API as seen by the handlers.
type Upstream interface {
	CreatePost(ctx context.Context, p upstream.NewPost) (*upstream.Response, error)
	Categories(ctx context.Context) (*upstream.Response, error)
	Posts(ctx context.Context, q upstream.PostsQuery) (*upstream.Response, error)
}

// Publisher receives posts created through the relay.
type Publisher interface {
	Publish(post upstream.Post)
}

// StagingRecorder observes the staged upload lifecycle.
type StagingRecorder interface {
	StagedAdded(size int64)
	StagedReleased(err error)
}

type nopRecorder struct{}

func (nopRecorder) StagedAdded(int64)    {}
func (nopRecorder) StagedReleased(error) {}

// Options configures a Handler.
type Options struct {
	// Upstream is required.
	Upstream Upstream

	// Store holds uploads while they are relayed. Required.
	Store upload.Store

	// Feed is optional.
	Feed Publisher

	// Metrics is optional.
	Metrics StagingRecorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler serves the relay and proxy endpoints.
type Handler struct {
	upstream Upstream
	store    upload.Store
	feed     Publisher
	metrics  StagingRecorder
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		upstream: opts.Upstream,
		store:    opts.Store,
		feed:     opts.Feed,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("component", "api"),
	}
}

// CreatePost relays a multipart post form to the content API.
//
// The uploaded image is staged for the duration of the request and released
// on every exit path, including panics. The upstream call is detached from
// client cancellation so a disconnect cannot interrupt it halfway.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	form, err := upload.Parse(r, h.store)
	if err != nil {
		if stderrors.Is(err, upload.ErrStage) {
			h.writeError(w, r, errors.New(errors.CodeFileUploadFailed).
				WithDetail("the image could not be written to the staging store").Wrap(err))
			return
		}
		h.writeError(w, r, errors.New(errors.CodeUploadParseError).Wrap(err))
		return
	}
	if form.File == nil {
		h.writeError(w, r, errors.New(errors.CodeFileUploadFailed).
			WithDetail("the form has no image part"))
		return
	}

	ctx := context.WithoutCancel(r.Context())

	staged := form.File
	h.metrics.StagedAdded(staged.Size)
	defer func() {
		err := staged.Release(ctx)
		h.metrics.StagedReleased(err)
		if err != nil {
			h.logger.WarnContext(ctx, "release staged upload", "id", staged.ID, "error", err)
		}
	}()

	image, err := staged.Open(ctx)
	if err != nil {
		h.writeError(w, r, errors.New(errors.CodeFileUploadFailed).Wrap(err))
		return
	}
	defer image.Close()

	resp, err := h.upstream.CreatePost(ctx, upstream.NewPost{
		Title:      form.Field("title"),
		Content:    form.Field("content"),
		CategoryID: form.Field("category_id"),
		Image:      image,
		ImageName:  staged.Filename,
		ImageType:  staged.ContentType,
	})
	if err != nil {
		h.writeError(w, r, relayError(err))
		return
	}

	writeRaw(w, resp.Status, resp.Body)
	h.publish(ctx, resp.Body)
}

// GetCategories proxies the category list.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	resp, err := h.upstream.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, proxyError(err, errors.CodeCategoriesFetchFailed))
		return
	}
	writeRaw(w, resp.Status, resp.Body)
}

// GetPosts proxies the post listing. Paging and sort parameters are
// defaulted; the rest pass through unchanged.
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	q := upstream.PostsQueryFromValues(r.URL.Query())
	resp, err := h.upstream.Posts(r.Context(), q)
	if err != nil {
		h.writeError(w, r, proxyError(err, errors.CodePostsFetchFailed))
		return
	}
	writeRaw(w, resp.Status, resp.Body)
}

func (h *Handler) publish(ctx context.Context, body []byte) {
	if h.feed == nil {
		return
	}
	var post upstream.Post
	if err := json.Unmarshal(body, &post); err != nil {
		h.logger.DebugContext(ctx, "created post not published", "error", err)
		return
	}
	h.feed.Publish(post)
}

// relayError maps a CreatePost failure. Upstream answers keep their status
// and, when present, their body as the message.
func relayError(err error) *errors.RelayError {
	var ue *upstream.Error
	if !stderrors.As(err, &ue) {
		return errors.New(errors.CodeUnexpectedError).Wrap(err)
	}
	re := errors.New(errors.CodeUpstreamError).WithStatus(ue.Status).Wrap(err)
	if msg := upstreamMessage(ue.Body); msg != nil {
		re.WithPayload(msg)
	}
	return re
}

// proxyError maps a read proxy failure to a fixed message, keeping the
// upstream status when there was one.
func proxyError(err error, code string) *errors.RelayError {
	re := errors.New(code).Wrap(err)
	var ue *upstream.Error
	if stderrors.As(err, &ue) {
		re.WithStatus(ue.Status)
	}
	return re
}
