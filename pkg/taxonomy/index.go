// Package taxonomy builds the read-only category index: a bidirectional
// lookup from any category id to its display name and to its owning root.
// The index is built once per taxonomy input and never mutated; new
// categories only appear by rebuilding.
package taxonomy

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/finscope/finscope/pkg/models"
)

// Uncategorized is the bucket transactions fall into when their category id
// is not in the index. Callers must use it rather than failing.
const Uncategorized = "Uncategorized"

// Index resolves category ids to names and owning roots.
type Index struct {
	names map[string]string
	own   map[string]string
	roots map[string]models.Category
	order []models.Category
}

// Build constructs an index from a flat two-level category list. Roots map to
// themselves in the root lookup; each child maps to its root's name and root.
// A child whose parent is missing is promoted to a root of its own and logged,
// never dropped.
func Build(categories []models.Category, logger *log.Logger) *Index {
	ix := &Index{
		names: make(map[string]string, len(categories)),
		own:   make(map[string]string, len(categories)),
		roots: make(map[string]models.Category),
	}

	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	for _, c := range categories {
		root := c
		if !c.IsRoot() {
			parent, ok := byID[c.ParentID]
			if ok && parent.IsRoot() {
				root = parent
			} else {
				logger.Warn("orphaned child category, treating as its own root",
					"id", c.ID, "name", c.Name, "parent_id", c.ParentID)
			}
		}
		ix.names[c.ID] = root.Name
		ix.own[c.ID] = c.Name
		ix.roots[c.ID] = root
		if root.ID == c.ID {
			ix.order = append(ix.order, root)
		}
	}

	sort.Slice(ix.order, func(i, j int) bool { return ix.order[i].Name < ix.order[j].Name })
	return ix
}

// Name returns the display name registered for id. For a child that is the
// root's name, matching the legend grouping.
func (ix *Index) Name(id string) (string, bool) {
	name, ok := ix.names[id]
	return name, ok
}

// DisplayName is Name with the Uncategorized fallback applied.
func (ix *Index) DisplayName(id string) string {
	if name, ok := ix.names[id]; ok {
		return name
	}
	return Uncategorized
}

// OwnName returns the category's own name rather than its root's, for
// surfaces like the report that show both levels.
func (ix *Index) OwnName(id string) (string, bool) {
	name, ok := ix.own[id]
	return name, ok
}

// Root returns the root category owning id. Roots resolve to themselves.
func (ix *Index) Root(id string) (models.Category, bool) {
	root, ok := ix.roots[id]
	return root, ok
}

// Roots lists every root category in stable name order.
func (ix *Index) Roots() []models.Category {
	out := make([]models.Category, len(ix.order))
	copy(out, ix.order)
	return out
}
