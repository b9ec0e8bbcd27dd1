package taxonomy

import "sort"

// rank positions a key for ordering: ordered entries first by their order,
// then registered entries without an order, then keys the catalog does not
// know at all.
type rank struct {
	tier  int
	order int
}

func (c *Catalog) rankOf(key string) rank {
	e, ok := c.Lookup(key)
	switch {
	case !ok:
		return rank{tier: 2}
	case e.Order == nil:
		return rank{tier: 1}
	default:
		return rank{tier: 0, order: *e.Order}
	}
}

func (a rank) less(b rank) bool {
	if a.tier != b.tier {
		return a.tier < b.tier
	}
	return a.order < b.order
}

// ModuleKeysForDocType returns the visible canonical keys that apply to
// docType, ascending by order. Unordered entries follow the ordered ones in
// catalog declaration order.
func (c *Catalog) ModuleKeysForDocType(docType string) []string {
	keys := make([]string, 0, len(c.keys))
	for _, k := range c.keys {
		e := c.entries[k]
		if e.Hidden || !e.AppliesTo(docType) {
			continue
		}
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return c.rankOf(keys[i]).less(c.rankOf(keys[j]))
	})
	return keys
}

// SortByOrder returns a copy of items sorted by the catalog order of each
// item's canonical key. Items with unregistered keys go last. Ties keep
// their input order; the comparator falls back to the original index so the
// result does not depend on the stability of the sort implementation.
func SortByOrder[T Keyed](c *Catalog, items []T) []T {
	type indexed struct {
		item T
		r    rank
		idx  int
	}
	tmp := make([]indexed, len(items))
	for i, it := range items {
		tmp[i] = indexed{item: it, r: c.rankOf(it.Key()), idx: i}
	}
	sort.Slice(tmp, func(i, j int) bool {
		a, b := tmp[i], tmp[j]
		if a.r != b.r {
			return a.r.less(b.r)
		}
		return a.idx < b.idx
	})
	out := make([]T, len(tmp))
	for i, t := range tmp {
		out[i] = t.item
	}
	return out
}
