package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantMsg    string
		wantCat    Category
		wantStatus int
	}{
		{
			name:       "method not allowed",
			code:       CodeMethodNotAllowed,
			wantMsg:    "Method Not Allowed",
			wantCat:    CategoryRequest,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "file upload failed",
			code:       CodeFileUploadFailed,
			wantMsg:    "File upload failed.",
			wantCat:    CategoryUpload,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "posts fetch failed",
			code:       CodePostsFetchFailed,
			wantMsg:    "Error fetching posts",
			wantCat:    CategoryUpstream,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown error code",
			code:       "E999",
			wantMsg:    "Unknown error",
			wantCat:    CategoryInternal,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", err.Status, tt.wantStatus)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewReturnsFreshCopies(t *testing.T) {
	a := New(CodeUpstreamError).WithStatus(http.StatusBadGateway)
	b := New(CodeUpstreamError)
	if a.Status == b.Status {
		t.Fatalf("WithStatus leaked into the registry: both %d", a.Status)
	}
}

func TestWithStatusIgnoresZero(t *testing.T) {
	err := New(CodeCategoriesFetchFailed).WithStatus(0)
	if err.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", err.Status)
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("message string", func(t *testing.T) {
		body, _ := json.Marshal(New(CodeFileUploadFailed).Envelope())
		if string(body) != `{"message":"File upload failed."}` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("raw payload", func(t *testing.T) {
		err := New(CodeUpstreamError).WithPayload(json.RawMessage(`{"errors":{"title":["required"]}}`))
		body, _ := json.Marshal(err.Envelope())
		if string(body) != `{"message":{"errors":{"title":["required"]}}}` {
			t.Errorf("body = %s", body)
		}
	})
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeUnexpectedError) != nil {
		t.Fatal("FromError(nil) should be nil")
	}

	plain := stderrors.New("disk full")
	re := FromError(plain, CodeUnexpectedError)
	if re.Code != CodeUnexpectedError {
		t.Errorf("Code = %q", re.Code)
	}
	if !stderrors.Is(re, plain) {
		t.Error("wrapped error should be reachable with errors.Is")
	}

	inner := New(CodeFileUploadFailed)
	wrapped := fmt.Errorf("stage: %w", inner)
	if got := FromError(wrapped, CodeUnexpectedError); got != inner {
		t.Errorf("FromError should return the RelayError already in the chain")
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeUploadParseError))
	if !Is(err, CodeUploadParseError) {
		t.Error("Is should find code through wrapping")
	}
	if Is(err, CodeFileUploadFailed) {
		t.Error("Is matched the wrong code")
	}
	if Is(stderrors.New("x"), CodeFileUploadFailed) {
		t.Error("Is matched a plain error")
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeUpstreamError).Wrap(stderrors.New("connection refused"))
	want := "E120: An error occurred during the request.: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New(CodeMissingAPIToken).Format()
	for _, want := range []string{
		"ERROR E201: API token is not configured",
		"Hint: Set API_TOKEN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	compact := Newf(CategoryConfig, "bad port %d", 70000).FormatCompact()
	if compact != "bad port 70000" {
		t.Errorf("FormatCompact() = %q", compact)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("boom"))
	if !strings.Contains(buf.String(), "ERROR: boom") {
		t.Errorf("PrintError plain = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, New(CodeConfigInvalid))
	if !strings.Contains(buf.String(), "E200") {
		t.Errorf("PrintError relay = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if len(wrapText("", 10)) != 0 {
		t.Error("empty text should produce no lines")
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate(CodeUnexpectedError); !ok {
		t.Error("E199 should be registered")
	}
}
