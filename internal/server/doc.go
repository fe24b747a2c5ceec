// Package server assembles blogfront from its configuration and runs it.
//
// A Server owns the HTTP listener, the live feed hub and the staging
// sweeper. They run together under one errgroup: the first to fail, or the
// end of the run context, stops the rest and triggers a graceful shutdown.
package server
