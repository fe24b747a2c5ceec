package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories_SendsTokenAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/categories", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Tech","created_at":null,"updated_at":null}]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/", Token: "secret"})
	resp, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `[{"id":1,"name":"Tech","created_at":null,"updated_at":null}]`, string(resp.Body))
}

func TestCustomTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "", r.Header.Get("token"))
		assert.Equal(t, "abc", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Token: "abc", TokenHeader: "X-Api-Key"})
	_, err := c.Categories(context.Background())
	require.NoError(t, err)
}

func TestPosts_ForwardsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "4", q.Get("perPage"))
		assert.Equal(t, "title", q.Get("sortBy"))
		assert.Equal(t, "asc", q.Get("sortDirection"))
		assert.Equal(t, "go", q.Get("searchPhrase"))
		_, hasCategory := q["categoryId"]
		assert.False(t, hasCategory)
		w.Write([]byte(`{"data":[],"total":0}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	resp, err := c.Posts(context.Background(), PostsQuery{Page: "2", PerPage: "4", SearchPhrase: "go"}.WithDefaults())
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"total":0}`, string(resp.Body))
}

func TestNon2xxBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"The title field is required."}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.Categories(context.Background())

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.True(t, uerr.Responded())
	assert.Equal(t, http.StatusUnprocessableEntity, uerr.Status)
	assert.Equal(t, OpCategories, uerr.Op)
	assert.JSONEq(t, `{"message":"The title field is required."}`, string(uerr.Body))
	assert.Contains(t, uerr.Error(), "422")
}

func TestTransportErrorHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var observed []int
	c := New(Options{BaseURL: url, Observe: func(op string, status int, _ time.Duration) {
		observed = append(observed, status)
	}})
	_, err := c.Posts(context.Background(), PostsQuery{})

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.False(t, uerr.Responded())
	assert.NotNil(t, errors.Unwrap(uerr))
	assert.Equal(t, []int{0}, observed)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Categories(context.Background())

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCreatePost_StreamsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("token"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Hello", r.FormValue("title"))
		assert.Equal(t, "World", r.FormValue("content"))
		assert.Equal(t, "2", r.FormValue("category_id"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "pixels", string(data))
		assert.Equal(t, `my "cat".png`, header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.Write([]byte(`{"id":7,"title":"Hello"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Token: "secret"})
	resp, err := c.CreatePost(context.Background(), NewPost{
		Title:      "Hello",
		Content:    "World",
		CategoryID: "2",
		Image:      strings.NewReader("pixels"),
		ImageName:  `my "cat".png`,
		ImageType:  "image/png",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"title":"Hello"}`, string(resp.Body))
}

// trackingReader records reads that happen after done is set.
type trackingReader struct {
	mu        sync.Mutex
	r         io.Reader
	done      bool
	lateReads int
}

func (tr *trackingReader) Read(p []byte) (int, error) {
	tr.mu.Lock()
	if tr.done {
		tr.lateReads++
	}
	tr.mu.Unlock()
	return tr.r.Read(p)
}

func TestCreatePost_DoesNotReadImageAfterReturn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Answer without consuming the body.
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`too large`))
	}))
	defer srv.Close()

	img := &trackingReader{r: strings.NewReader(strings.Repeat("x", 4<<20))}
	c := New(Options{BaseURL: srv.URL})
	_, err := c.CreatePost(context.Background(), NewPost{Title: "t", Image: img})

	img.mu.Lock()
	img.done = true
	img.mu.Unlock()

	require.Error(t, err)
	time.Sleep(20 * time.Millisecond)
	img.mu.Lock()
	defer img.mu.Unlock()
	assert.Zero(t, img.lateReads)
}

func TestPostsQueryDefaultsAndValues(t *testing.T) {
	q := PostsQueryFromValues(map[string][]string{"categoryId": {"3"}})
	assert.Equal(t, PostsQuery{
		Page:          "1",
		PerPage:       "4",
		SortBy:        "title",
		SortDirection: "asc",
		CategoryID:    "3",
	}, q)

	v := q.Values()
	assert.Equal(t, "3", v.Get("categoryId"))
	_, hasSearch := v["searchPhrase"]
	assert.False(t, hasSearch)
}
