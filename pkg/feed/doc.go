// Package feed pushes newly created posts to browsers over WebSocket.
//
// A Hub is an http.Handler. Mount it, run it, and publish to it:
//
//	hub := feed.NewHub(feed.Options{})
//	go hub.Run(ctx)
//	r.Handle("/api/feed", hub)
//	hub.Publish(post)
//
// Every subscriber receives
//
//	{"type":"post.created","post":{...}}
//
// for each published post. Subscribers that cannot keep up are dropped
// rather than slowing the publisher down.
package feed
