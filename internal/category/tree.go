package category

import (
	"sort"
	"strings"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/category/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

// forest indexes a flat category list by id and by parent.
type forest struct {
	byID     map[string]model.Category
	children map[string][]string // parent id -> child ids, "" holds roots
	order    []string            // input order, first occurrence only
}

func newForest(flat []model.Category) *forest {
	f := &forest{
		byID:     make(map[string]model.Category, len(flat)),
		children: make(map[string][]string),
	}
	for _, c := range flat {
		if _, dup := f.byID[c.ID]; dup {
			continue
		}
		c.Children = nil
		f.byID[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	for _, id := range f.order {
		f.children[f.parentKey(id)] = append(f.children[f.parentKey(id)], id)
	}
	for k := range f.children {
		f.sortIDs(f.children[k])
	}
	return f
}

// parentKey is the effective parent: "" for roots, self-parented rows and
// rows whose parent is missing.
func (f *forest) parentKey(id string) string {
	c := f.byID[id]
	if c.ParentID == nil || *c.ParentID == "" || *c.ParentID == id {
		return ""
	}
	if _, ok := f.byID[*c.ParentID]; !ok {
		return ""
	}
	return *c.ParentID
}

func (f *forest) sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := f.byID[ids[i]], f.byID[ids[j]]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if a.NameEn != b.NameEn {
			return a.NameEn < b.NameEn
		}
		return a.ID < b.ID
	})
}

func (f *forest) build(id string, visited map[string]bool) model.Category {
	visited[id] = true
	c := f.byID[id]
	for _, kid := range f.children[id] {
		if visited[kid] {
			continue
		}
		c.Children = append(c.Children, f.build(kid, visited))
	}
	return c
}

// BuildTree groups a flat list into parent -> children trees. Siblings are
// ordered by display_order, then name_en. Every input row appears exactly
// once: orphans (missing parent) and members of parent cycles are promoted
// to roots.
func BuildTree(flat []model.Category) []model.Category {
	f := newForest(flat)
	visited := make(map[string]bool, len(f.byID))

	var roots []model.Category
	for _, id := range f.children[""] {
		roots = append(roots, f.build(id, visited))
	}

	// Rows only reachable through a cycle were never visited.
	var stranded []string
	for _, id := range f.order {
		if !visited[id] {
			stranded = append(stranded, id)
		}
	}
	f.sortIDs(stranded)
	for _, id := range stranded {
		if visited[id] {
			continue
		}
		roots = append(roots, f.build(id, visited))
	}

	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].DisplayOrder != roots[j].DisplayOrder {
			return roots[i].DisplayOrder < roots[j].DisplayOrder
		}
		if roots[i].NameEn != roots[j].NameEn {
			return roots[i].NameEn < roots[j].NameEn
		}
		return roots[i].ID < roots[j].ID
	})
	return roots
}

// Flatten walks trees in pre-order. Children are cleared on the copies.
func Flatten(tree []model.Category) []model.Category {
	var out []model.Category
	var walk func(nodes []model.Category)
	walk = func(nodes []model.Category) {
		for _, n := range nodes {
			kids := n.Children
			n.Children = nil
			out = append(out, n)
			walk(kids)
		}
	}
	walk(tree)
	return out
}

// PruneInactive drops inactive nodes together with their subtrees.
func PruneInactive(tree []model.Category) []model.Category {
	out := make([]model.Category, 0, len(tree))
	for _, n := range tree {
		if !n.IsActive {
			continue
		}
		n.Children = PruneInactive(n.Children)
		if len(n.Children) == 0 {
			n.Children = nil
		}
		out = append(out, n)
	}
	return out
}

// Descendants returns id followed by every category below it. Unknown ids
// yield nil.
func Descendants(flat []model.Category, id string) []string {
	f := newForest(flat)
	if _, ok := f.byID[id]; !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	out := []string{id}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, kid := range f.children[cur] {
			if seen[kid] {
				continue
			}
			seen[kid] = true
			out = append(out, kid)
			queue = append(queue, kid)
		}
	}
	return out
}

// GroupByParentGroup buckets root categories into navigation groups keyed by
// parent_group. Groups are ordered by the smallest display_order they hold;
// roots without a group form a trailing group with an empty key.
func GroupByParentGroup(roots []model.Category) []dto.MenuGroup {
	idx := map[string]int{}
	var groups []dto.MenuGroup
	minOrder := map[string]int{}

	for _, r := range roots {
		key := ""
		if r.ParentGroup != nil {
			key = strings.TrimSpace(*r.ParentGroup)
		}
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, dto.MenuGroup{Key: key})
			minOrder[key] = r.DisplayOrder
		}
		groups[i].Categories = append(groups[i].Categories, r)
		if r.DisplayOrder < minOrder[key] {
			minOrder[key] = r.DisplayOrder
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if (a == "") != (b == "") {
			return b == ""
		}
		if minOrder[a] != minOrder[b] {
			return minOrder[a] < minOrder[b]
		}
		return a < b
	})
	return groups
}

// PlanMove computes the rows that change when category move.ID is dropped at
// move.NewIndex under move.NewParentID. Both the source and destination
// sibling lists are renumbered 0..n-1.
func PlanMove(flat []model.Category, move *dto.MoveInput) ([]dto.OrderUpdate, error) {
	f := newForest(flat)
	if _, ok := f.byID[move.ID]; !ok {
		return nil, apperr.NotFound("category.not_found")
	}

	newParent := ""
	if move.NewParentID != nil {
		newParent = *move.NewParentID
	}
	if newParent != "" {
		if _, ok := f.byID[newParent]; !ok {
			return nil, apperr.Invalid("category.parent_not_found")
		}
		for _, d := range Descendants(flat, move.ID) {
			if d == newParent {
				return nil, apperr.Invalid("category.cycle")
			}
		}
	}
	oldParent := f.parentKey(move.ID)

	without := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != move.ID {
				out = append(out, id)
			}
		}
		return out
	}

	dest := without(f.children[newParent])
	at := move.NewIndex
	if at < 0 {
		at = 0
	}
	if at > len(dest) {
		at = len(dest)
	}
	dest = append(dest[:at], append([]string{move.ID}, dest[at:]...)...)

	var updates []dto.OrderUpdate
	emit := func(ids []string, parent string) {
		for i, id := range ids {
			c := f.byID[id]
			cur := ""
			if c.ParentID != nil {
				cur = *c.ParentID
			}
			if c.DisplayOrder == i && cur == parent {
				continue
			}
			var pid *string
			if parent != "" {
				p := parent
				pid = &p
			}
			updates = append(updates, dto.OrderUpdate{ID: id, ParentID: pid, DisplayOrder: i})
		}
	}
	emit(dest, newParent)
	if oldParent != newParent {
		emit(without(f.children[oldParent]), oldParent)
	}
	return updates, nil
}

// ApplyUpdates returns a copy of flat with the planned positions applied.
func ApplyUpdates(flat []model.Category, updates []dto.OrderUpdate) []model.Category {
	byID := make(map[string]dto.OrderUpdate, len(updates))
	for _, u := range updates {
		byID[u.ID] = u
	}
	out := make([]model.Category, len(flat))
	for i, c := range flat {
		if u, ok := byID[c.ID]; ok {
			c.ParentID = u.ParentID
			c.DisplayOrder = u.DisplayOrder
		}
		out[i] = c
	}
	return out
}
