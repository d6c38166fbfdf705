// Package pathres rebuilds on-disk paths by walking the gallery's parent links.
package pathres

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/gallerycaptions/internal/model"
)

// DefaultMaxDepth bounds a walk even when the parent links are malformed.
const DefaultMaxDepth = 256

// Result is the outcome of one walk.
type Result struct {
	// Components runs from the outermost album down to the item itself.
	Components []string
	// Cyclic is set when the walk revisited a node.
	Cyclic bool
	// Orphaned is set when a node had no filesystem entity.
	Orphaned bool
	// Truncated is set when the walk hit the depth limit.
	Truncated bool
}

// Resolver walks parent links over immutable lookup tables.
type Resolver struct {
	filesystem map[string]string
	parents    map[string]string
	maxDepth   int
}

// New returns a Resolver over the filesystem and parent tables.
func New(t *model.Tables) *Resolver {
	return &Resolver{
		filesystem: t.Filesystem,
		parents:    t.Children,
		maxDepth:   DefaultMaxDepth,
	}
}

// WithMaxDepth returns a copy of r that stops after depth nodes.
func (r *Resolver) WithMaxDepth(depth int) *Resolver {
	c := *r
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	c.maxDepth = depth
	return &c
}

// Trace walks from id towards the root. The walk stops at a NULL path
// component, at a node without a filesystem entity, at a node without a parent,
// on a revisited node, or at the depth limit. Whatever was collected so far is
// kept in every case.
func (r *Resolver) Trace(id string) Result {
	var (
		res     Result
		visited = make(map[string]bool)
		current = id
	)

	for {
		if visited[current] {
			res.Cyclic = true
			break
		}
		if len(visited) >= r.maxDepth {
			res.Truncated = true
			break
		}
		visited[current] = true

		component, ok := r.filesystem[current]
		if !ok {
			res.Orphaned = true
			break
		}
		if model.IsNull(component) {
			break
		}
		res.Components = append(res.Components, component)

		parent, ok := r.parents[current]
		if !ok {
			break
		}
		current = parent
	}

	reverse(res.Components)
	return res
}

// Path joins the components into a relative filesystem path. It returns
// false when nothing was resolved; such items are skipped.
func (res Result) Path() (string, bool) {
	if len(res.Components) == 0 {
		return "", false
	}
	return filepath.Join(res.Components...), true
}

// Resolve returns the path components of id, root first.
func (r *Resolver) Resolve(id string) []string {
	return r.trace(id).Components
}

// ResolvePath joins the components of id into a relative filesystem path.
// It returns false when nothing could be resolved; such items are skipped.
func (r *Resolver) ResolvePath(id string) (string, bool) {
	return r.trace(id).Path()
}

// trace walks id and logs what the walk ran into.
func (r *Resolver) trace(id string) Result {
	res := r.Trace(id)
	log := logrus.WithField("item", id)
	if res.Cyclic {
		log.Warn("parent links form a cycle")
	}
	if res.Truncated {
		log.Warn("parent chain exceeds depth limit")
	}
	if res.Orphaned {
		log.Debug("missing filesystem entity, treating as root")
	}
	return res
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
