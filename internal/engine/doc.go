// Package engine drives the projector from an event source.
//
// The Runner is the single writer: it pulls a batch from a Source,
// applies each delivery in order, and commits the batch back to the source
// once every delivery has been handled. Failures confined to one event are
// either fatal or skipped according to the Policy; store and resolver
// failures always stop the runner.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine
//   - Stats(): safe from any goroutine
package engine
