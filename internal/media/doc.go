// Package media fetches protected binary resources into transient,
// revocable local references.
//
// The lifecycle invariant: a loader holds at most one live reference.
// Loading a new locator (or closing the loader) releases the old
// reference before a new one can exist, and a fetch that resolves after
// being superseded is discarded rather than applied. This is the scoped
// acquire/release discipline the verification documents need - the files
// are identity documents and must not pile up in the temp directory.
package media
