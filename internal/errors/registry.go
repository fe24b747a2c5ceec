package errors

import (
	"net/http"
	"sort"
)

// Registered error codes.
const (
	CodeMethodNotAllowed      = "E100"
	CodeUploadParseError      = "E110"
	CodeFileUploadFailed      = "E111"
	CodeUpstreamError         = "E120"
	CodeCategoriesFetchFailed = "E121"
	CodePostsFetchFailed      = "E122"
	CodeUnexpectedError       = "E199"
	CodeConfigInvalid         = "E200"
	CodeMissingAPIToken       = "E201"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Status     int
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Request Errors (E100-E109)
	// ============================================

	CodeMethodNotAllowed: {
		Category: CategoryRequest,
		Status:   http.StatusMethodNotAllowed,
		Message:  "Method Not Allowed",
		Detail:   "The endpoint was called with an HTTP method it does not accept.",
	},

	// ============================================
	// Upload Errors (E110-E119)
	// ============================================

	CodeUploadParseError: {
		Category: CategoryUpload,
		Status:   http.StatusInternalServerError,
		Message:  "Failed to parse upload.",
		Detail:   "The request body is not a well-formed multipart form.",
	},
	CodeFileUploadFailed: {
		Category: CategoryUpload,
		Status:   http.StatusInternalServerError,
		Message:  "File upload failed.",
		Detail:   "The form did not carry an image part, so there was nothing to relay.",
	},

	// ============================================
	// Upstream Errors (E120-E129)
	// ============================================

	CodeUpstreamError: {
		Category: CategoryUpstream,
		Status:   http.StatusInternalServerError,
		Message:  "An error occurred during the request.",
		Detail:   "The content API returned an error or could not be reached.",
	},
	CodeCategoriesFetchFailed: {
		Category: CategoryUpstream,
		Status:   http.StatusInternalServerError,
		Message:  "Error fetching categories",
	},
	CodePostsFetchFailed: {
		Category: CategoryUpstream,
		Status:   http.StatusInternalServerError,
		Message:  "Error fetching posts",
	},

	// ============================================
	// Internal Errors (E190-E199)
	// ============================================

	CodeUnexpectedError: {
		Category: CategoryInternal,
		Status:   http.StatusInternalServerError,
		Message:  "An unexpected error occurred.",
	},

	// ============================================
	// Config Errors (E200-E219)
	// ============================================

	CodeConfigInvalid: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check blogfront.json and the BLOGFRONT_* environment variables",
	},
	CodeMissingAPIToken: {
		Category:   CategoryConfig,
		Message:    "API token is not configured",
		Detail:     "Every upstream call carries the content API token. Without it the API rejects all requests.",
		Suggestion: "Set API_TOKEN in the environment or in .env",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
