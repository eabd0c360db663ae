package vfs

import (
	"context"
	"net/http"
	"path"
	"strings"

	"photo-curator/core/storage"

	"github.com/minio/minio-go/v7"
)

// DefaultMarkers are the directory marker files that exclude a subtree
// from indexing.
var DefaultMarkers = []string{".nomedia", ".noimage"}

// ObjectTree is the MinIO-backed Tree implementation.
type ObjectTree struct {
	client  storage.Client
	bucket  string
	markers []string
}

// NewObjectTree creates a Tree over the given bucket using the default
// exclusion markers.
func NewObjectTree(client storage.Client, bucket string) *ObjectTree {
	return &ObjectTree{
		client:  client,
		bucket:  bucket,
		markers: DefaultMarkers,
	}
}

// ExistsBatch lists once under the common prefix of the requested keys and
// intersects the listing with the request. Keys outside the user's root are
// never reported present.
func (t *ObjectTree) ExistsBatch(ctx context.Context, userID string, keys []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	root := userID + "/"
	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, root) {
			wanted[k] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return found, nil
	}

	prefix := commonDirPrefix(keys, root)

	for obj := range t.client.ListObjects(ctx, t.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if _, ok := wanted[obj.Key]; ok {
			found[obj.Key] = struct{}{}
		}
	}

	return found, nil
}

// Resolve stats the object and classifies its mount from the key layout.
func (t *ObjectTree) Resolve(ctx context.Context, userID, key string) (*Node, error) {
	_, err := t.client.StatObject(ctx, t.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	rel := strings.TrimPrefix(key, userID+"/")
	return &Node{
		User:  userID,
		Key:   key,
		Path:  rel,
		Dir:   path.Dir(rel),
		Mount: mountOf(rel),
	}, nil
}

// IsUnderExcluded walks from the node's directory up to the user root,
// statting marker objects at every level. The walk covers nested markers:
// a marker anywhere on the ancestor chain excludes the node.
func (t *ObjectTree) IsUnderExcluded(ctx context.Context, node *Node) (bool, error) {
	dir := node.Dir
	for {
		base := node.User
		if dir != "." && dir != "" {
			base = node.User + "/" + dir
		}
		for _, marker := range t.markers {
			_, err := t.client.StatObject(ctx, t.bucket, base+"/"+marker, minio.StatObjectOptions{})
			if err == nil {
				return true, nil
			}
			if !isNotFound(err) {
				return false, err
			}
		}
		if dir == "." || dir == "" {
			return false, nil
		}
		dir = path.Dir(dir)
	}
}

// mountOf maps the first path segment under the user root to a mount type.
func mountOf(rel string) MountType {
	seg := rel
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		seg = rel[:i]
	}
	switch seg {
	case "files":
		return MountHome
	case "external":
		return MountExternal
	case "shared":
		return MountShared
	case "groupfolders":
		return MountGroup
	default:
		return MountUnknown
	}
}

// commonDirPrefix returns the longest directory prefix shared by all keys,
// bounded below by the user root so a stray key cannot widen the listing
// to the whole bucket.
func commonDirPrefix(keys []string, root string) string {
	common := keys[0]
	for _, k := range keys[1:] {
		for !strings.HasPrefix(k, common) {
			common = common[:len(common)-1]
			if len(common) <= len(root) {
				return root
			}
		}
	}
	// Cut back to a directory boundary.
	if i := strings.LastIndexByte(common, '/'); i >= 0 && i+1 > len(root) {
		return common[:i+1]
	}
	return root
}

// isNotFound reports whether a storage error means "object absent" rather
// than an infrastructure failure.
func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
