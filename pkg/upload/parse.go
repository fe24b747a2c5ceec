package upload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// FileField is the multipart field name that carries the uploaded file.
const FileField = "image"

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

var (
	// ErrMalformed is returned when the body is not a readable multipart form.
	ErrMalformed = errors.New("upload: malformed multipart body")

	// ErrStage is returned when the file part could not be written to the store.
	ErrStage = errors.New("upload: staging failed")
)

// Request is the result of the parse stage: the text fields of the form and
// the staged file, if any.
type Request struct {
	// Fields holds text parts. When a name repeats, the first value wins.
	Fields map[string]string

	// File is the staged "image" part, or nil if the form had none.
	File *Staged
}

// Field returns a text field, or "" when absent.
func (r *Request) Field(name string) string {
	return r.Fields[name]
}

// Parse streams a multipart request body. Text parts are collected into
// Fields. The "image" part is written to store. Other file parts are
// discarded.
//
// On success the caller owns req.File and must release it. On failure
// anything Parse staged has already been released.
func Parse(r *http.Request, store Store) (*Request, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	ctx := r.Context()
	req := &Request{Fields: make(map[string]string)}

	fail := func(err error) (*Request, error) {
		if req.File != nil {
			req.File.Release(context.WithoutCancel(ctx))
		}
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrMalformed, err))
		}

		name := part.FormName()
		switch {
		case part.FileName() == "":
			value, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("%w: field %q: %v", ErrMalformed, name, err))
			}
			if _, seen := req.Fields[name]; !seen {
				req.Fields[name] = string(value)
			}

		case name == FileField:
			if req.File != nil {
				part.Close()
				return fail(fmt.Errorf("%w: more than one %q part", ErrMalformed, FileField))
			}
			staged, err := stagePart(ctx, store, part)
			part.Close()
			if err != nil {
				return fail(err)
			}
			req.File = staged

		default:
			_, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("%w: part %q: %v", ErrMalformed, name, err))
			}
		}
	}

	return req, nil
}

// readRecorder remembers the first read error so a failed Save can be
// attributed to the request body rather than the store.
type readRecorder struct {
	r   io.Reader
	err error
}

func (rr *readRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF && rr.err == nil {
		rr.err = err
	}
	return n, err
}

func stagePart(ctx context.Context, store Store, part *multipart.Part) (*Staged, error) {
	rec := &readRecorder{r: part}
	br := bufio.NewReaderSize(rec, sniffLen)

	// Client part headers are a hint only; sniff when they say nothing useful.
	contentType := part.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := br.Peek(sniffLen)
		contentType = http.DetectContentType(head)
	}

	staged, err := Stage(ctx, store, part.FileName(), contentType, br)
	if err != nil {
		if rec.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, rec.err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStage, err)
	}
	return staged, nil
}
