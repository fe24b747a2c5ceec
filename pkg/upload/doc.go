// Package upload stages uploaded files for the duration of a single request.
//
// A request that carries a file goes through two steps:
//
//  1. Parse reads the multipart body, streams the "image" part into a Store
//     and returns the text fields together with a *Staged handle.
//  2. The handler re-opens the staged file, relays it, and releases it.
//
// The handle must be released on every exit path:
//
//	req, err := upload.Parse(r, store)
//	if err != nil {
//	    return err
//	}
//	if req.File == nil {
//	    return errNoFile
//	}
//	defer req.File.Release(context.Background())
//
// Release deletes the entry at most once, so an early explicit Release
// followed by the deferred one is safe.
//
// # Stores
//
// DiskStore writes entries under a local directory using UUID-based names,
// so concurrent requests never collide. S3Store keeps them in a bucket
// prefix instead. Both implement Sweep, which removes entries left behind
// by a crash.
package upload
