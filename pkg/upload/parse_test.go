package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/blogfront/pkg/upload"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// newFormRequest builds a multipart POST. When truncate is set the closing
// boundary is left off.
func newFormRequest(t *testing.T, fields [][2]string, files []formFile, truncate bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(f.content); err != nil {
			t.Fatalf("part.Write: %v", err)
		}
	}
	if !truncate {
		if err := writer.Close(); err != nil {
			t.Fatalf("writer.Close: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/createPost", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestParse_FieldsAndImage(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t,
		[][2]string{{"title", "Hello"}, {"content", "Body"}, {"category_id", "3"}, {"title", "ignored"}},
		[]formFile{{field: "image", filename: "cat.jpg", contentType: "image/jpeg", content: []byte("jpegdata")}},
		false)

	parsed, err := upload.Parse(req, store)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer parsed.File.Release(context.Background())

	if parsed.Field("title") != "Hello" {
		t.Errorf("title = %q, want first value", parsed.Field("title"))
	}
	if parsed.Field("category_id") != "3" || parsed.Field("content") != "Body" {
		t.Errorf("fields = %v", parsed.Fields)
	}
	if parsed.Field("missing") != "" {
		t.Error("missing field should be empty")
	}
	if parsed.File == nil {
		t.Fatal("expected staged file")
	}
	if parsed.File.Filename != "cat.jpg" || parsed.File.ContentType != "image/jpeg" || parsed.File.Size != 8 {
		t.Errorf("staged = %+v", parsed.File)
	}

	data, err := os.ReadFile(store.Path(parsed.File.ID))
	if err != nil {
		t.Fatalf("staged file not on disk: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Errorf("staged content = %q", data)
	}
}

func TestParse_NoImagePart(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t, [][2]string{{"title", "x"}}, nil, false)

	parsed, err := upload.Parse(req, store)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.File != nil {
		t.Fatal("File should be nil")
	}
	if names := dirEntries(t, store.Dir()); len(names) != 0 {
		t.Fatalf("nothing should be staged: %v", names)
	}
}

func TestParse_EmptyFilenameIsNotAFile(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t, nil,
		[]formFile{{field: "image", filename: "", content: nil}}, false)

	parsed, err := upload.Parse(req, store)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.File != nil {
		t.Fatal("an image part without a filename should not be staged")
	}
}

func TestParse_SniffsContentType(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t, nil,
		[]formFile{{field: "image", filename: "x.bin", contentType: "application/octet-stream", content: pngHeader}}, false)

	parsed, err := upload.Parse(req, store)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer parsed.File.Release(context.Background())

	if parsed.File.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", parsed.File.ContentType)
	}
}

func TestParse_IgnoresOtherFileParts(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t, nil, []formFile{
		{field: "attachment", filename: "a.txt", content: []byte("skip me")},
		{field: "image", filename: "b.png", contentType: "image/png", content: pngHeader},
	}, false)

	parsed, err := upload.Parse(req, store)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer parsed.File.Release(context.Background())

	if names := dirEntries(t, store.Dir()); len(names) != 1 {
		t.Fatalf("exactly one staged file expected, got %v", names)
	}
}

func TestParse_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/createPost", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := upload.Parse(req, newDiskStore(t))
	if !errors.Is(err, upload.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestParse_TruncatedBodyLeavesNothingBehind(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t, [][2]string{{"title", "x"}},
		[]formFile{{field: "image", filename: "a.png", contentType: "image/png", content: pngHeader}}, true)

	_, err := upload.Parse(req, store)
	if !errors.Is(err, upload.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if names := dirEntries(t, store.Dir()); len(names) != 0 {
		t.Fatalf("staged file leaked: %v", names)
	}
}

func TestParse_DuplicateImageReleasesFirst(t *testing.T) {
	store := newDiskStore(t)
	req := newFormRequest(t, nil, []formFile{
		{field: "image", filename: "a.png", contentType: "image/png", content: pngHeader},
		{field: "image", filename: "b.png", contentType: "image/png", content: pngHeader},
	}, false)

	_, err := upload.Parse(req, store)
	if !errors.Is(err, upload.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if names := dirEntries(t, store.Dir()); len(names) != 0 {
		t.Fatalf("first image leaked: %v", names)
	}
}

type brokenStore struct{}

func (brokenStore) Save(_ context.Context, r io.Reader) (string, int64, error) {
	io.Copy(io.Discard, r)
	return "", 0, errors.New("disk full")
}
func (brokenStore) Open(context.Context, string) (io.ReadCloser, error) { return nil, upload.ErrNotFound }
func (brokenStore) Remove(context.Context, string) error                { return upload.ErrNotFound }
func (brokenStore) Sweep(context.Context, time.Duration) (int, error)   { return 0, nil }

func TestParse_StoreFailure(t *testing.T) {
	req := newFormRequest(t, nil,
		[]formFile{{field: "image", filename: "a.png", contentType: "image/png", content: pngHeader}}, false)

	_, err := upload.Parse(req, brokenStore{})
	if !errors.Is(err, upload.ErrStage) {
		t.Fatalf("err = %v, want ErrStage", err)
	}
	if errors.Is(err, upload.ErrMalformed) {
		t.Fatal("store failure should not be reported as malformed body")
	}
}
