// Package upstream is the client for the remote content API that owns
// posts and categories.
//
// Bodies are returned as raw bytes so callers can relay them unchanged.
// A non-2xx answer becomes *Error carrying the status and body; a transport
// failure becomes *Error with Status 0.
//
//	c := upstream.New(upstream.Options{BaseURL: baseURL, Token: token})
//	resp, err := c.Posts(ctx, upstream.PostsQuery{Page: "2", PerPage: "4"})
//	var uerr *upstream.Error
//	if errors.As(err, &uerr) {
//	    // uerr.Status, uerr.Body
//	}
//
// Every call carries the API token in a custom header ("token" unless
// configured otherwise) and the current trace context.
package upstream
