package cleanup

import (
	"context"

	"photo-curator/core/vfs"
)

// ExclusionCache memoizes the expensive exclusion marker walk per parent
// directory. Only negative results ("not excluded") are cached: siblings
// sharing a parent share its non-excluded status, while a positive result is
// never stored because nested markers on other paths still require the full
// walk. The cache lives for a single user's scan and is never persisted.
type ExclusionCache struct {
	tree   vfs.Tree
	clear  map[string]struct{}
	hits   int
	misses int
}

// NewExclusionCache creates an empty cache over the given tree.
func NewExclusionCache(tree vfs.Tree) *ExclusionCache {
	return &ExclusionCache{
		tree:  tree,
		clear: make(map[string]struct{}),
	}
}

// IsExcluded reports whether the node lives under an exclusion marker,
// consulting the cache before delegating to the tree walk.
func (c *ExclusionCache) IsExcluded(ctx context.Context, node *vfs.Node) (bool, error) {
	if _, ok := c.clear[node.Dir]; ok {
		c.hits++
		return false, nil
	}
	c.misses++

	excluded, err := c.tree.IsUnderExcluded(ctx, node)
	if err != nil {
		return false, err
	}
	if !excluded {
		c.clear[node.Dir] = struct{}{}
	}
	return excluded, nil
}

// Reset drops all cached entries and counters. Called at the start of every
// user scan so state never leaks across users.
func (c *ExclusionCache) Reset() {
	c.clear = make(map[string]struct{})
	c.hits = 0
	c.misses = 0
}

// Stats returns the hit and miss counters accumulated since the last Reset.
func (c *ExclusionCache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
