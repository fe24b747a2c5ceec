// Package api implements blogfront's local HTTP surface: the post upload
// relay and the read proxies in front of the content API.
//
// Routes:
//
//	POST /api/createPost     multipart form relayed to POST /api/posts
//	GET  /api/getCategories  proxied to GET /api/categories
//	GET  /api/getPosts       proxied to GET /api/posts
//	GET  /api/feed           live post feed (WebSocket), when enabled
//	GET  /healthz            liveness
//	GET  /metrics            Prometheus, when enabled
//
// Every failure is answered at the handler boundary as
//
//	{"message": ...}
//
// except 405, which is a plain-text "Method Not Allowed" with an Allow
// header.
package api
