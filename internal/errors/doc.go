// Package errors provides the structured error type used at blogfront's
// handler boundary and on the command line.
//
// Every failure a handler can produce maps to a registered code. A code
// carries the HTTP status and the client-facing message, so handlers never
// hand-assemble status/message pairs:
//
//	return errors.New(errors.CodeFileUploadFailed)
//
// At the boundary the error is rendered as a JSON envelope:
//
//	{"message": "File upload failed."}
//
// # Error Categories
//
//   - request: the caller did something the endpoint does not accept
//   - upload: the multipart body could not be staged
//   - upstream: the content API failed or was unreachable
//   - internal: anything uncaught
//   - config: startup configuration problems (CLI only)
//
// # Terminal Output
//
// CLI commands print errors with Format, which adds colour, the detail
// text and a hint line:
//
//	ERROR E201: API token is not configured
//
//	  Hint: Set API_TOKEN in the environment or in .env
package errors
