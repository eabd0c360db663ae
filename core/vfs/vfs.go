package vfs

import "context"

// MountType classifies where a storage key lives inside a user's tree.
// The type is derived from the first path segment under the user root.
type MountType string

const (
	// MountHome is the user's primary files mount.
	MountHome MountType = "home"
	// MountExternal is an externally mounted storage.
	MountExternal MountType = "external"
	// MountShared is a share received from another user.
	MountShared MountType = "shared"
	// MountGroup is a group folder mount.
	MountGroup MountType = "group"
	// MountUnknown is any key whose layout does not match a known mount.
	MountUnknown MountType = "unknown"
)

// Node is a resolved storage object inside a user's tree.
type Node struct {
	// User is the owning user id (the first key segment).
	User string
	// Key is the full object key, e.g. "alice/files/Photos/img.jpg".
	Key string
	// Path is the key relative to the user root, e.g. "files/Photos/img.jpg".
	Path string
	// Dir is the parent directory of Path.
	Dir string
	// Mount is the mount classification of the node.
	Mount MountType
}

// Tree answers questions about a user's file tree. It is the boundary the
// cleanup engine depends on; implementations must keep ExistsBatch a single
// round trip because the engine's throughput depends on it.
type Tree interface {
	// ExistsBatch returns the subset of keys currently present in the user's
	// tree. One listing pass, never per-key stats.
	ExistsBatch(ctx context.Context, userID string, keys []string) (map[string]struct{}, error)

	// Resolve returns the node for a storage key, or (nil, nil) when the key
	// no longer exists. The bulk index and the live view may disagree;
	// callers treat an unresolvable key as gone.
	Resolve(ctx context.Context, userID, key string) (*Node, error)

	// IsUnderExcluded walks the node's ancestor directories looking for an
	// exclusion marker. This is the expensive per-node check; callers are
	// expected to memoize negative results per directory.
	IsUnderExcluded(ctx context.Context, node *Node) (bool, error)
}
