// Package objectpool provides a bounded pool of expensive-to-create
// objects with optional per-object maximum lifetime.
//
// Borrow reuses an idle instance, creates one while below capacity,
// or blocks until a release. Expired instances are disposed through
// the configured OnClose hook and transparently recreated on demand.
// With runs a body with a borrowed instance and guarantees the
// release.
package objectpool
