// Package vfs models the user-facing virtual file tree stored in object storage.
//
// Object keys encode the tree layout: "<user>/<mount>/<path>", where the mount
// segment distinguishes the user's own files ("files") from external storages,
// received shares and group folders. Directories can carry exclusion markers
// (".nomedia", ".noimage") that remove their whole subtree from indexing.
//
// # Tree
//
// The Tree interface is what the cleanup feature consumes: bulk existence
// checks, single-node resolution and the exclusion marker walk. ObjectTree is
// the MinIO-backed implementation; tests substitute fakes.
//
// # Performance
//
// ExistsBatch is the hot path. ObjectTree answers it with one recursive
// listing under the common prefix of the requested keys and intersects the
// result with the request, so a batch of a thousand keys costs one listing
// pass instead of a thousand stat calls.
package vfs
