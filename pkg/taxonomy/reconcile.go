package taxonomy

import "log/slog"

// ReconcileInstances collapses module instances to at most one per canonical
// key. When a document holds both a legacy-keyed and a canonical-keyed row
// for the same slot, the row already stored under the canonical key wins;
// otherwise the first legacy row is kept. Instances resolving to a key
// outside canonicalKeys are dropped and logged.
//
// The result follows the order of canonicalKeys.
func ReconcileInstances[T Keyed](c *Catalog, items []T, canonicalKeys []string, logger *slog.Logger) []T {
	if logger == nil {
		logger = slog.Default()
	}

	wanted := make(map[string]struct{}, len(canonicalKeys))
	for _, k := range canonicalKeys {
		wanted[c.ResolveCanonicalKey(k)] = struct{}{}
	}

	type pick struct {
		idx   int
		exact bool
	}
	chosen := make(map[string]pick, len(canonicalKeys))

	for i, it := range items {
		raw := it.Key()
		canonical := c.ResolveCanonicalKey(raw)
		if _, ok := wanted[canonical]; !ok {
			logger.Warn("dropping module instance with unknown key",
				"key", raw, "resolved", canonical, "catalogVersion", c.version)
			continue
		}

		exact := raw == canonical
		prev, seen := chosen[canonical]
		switch {
		case !seen:
			chosen[canonical] = pick{idx: i, exact: exact}
		case exact && !prev.exact:
			logger.Debug("canonical row supersedes legacy row",
				"key", canonical, "legacyKey", items[prev.idx].Key())
			chosen[canonical] = pick{idx: i, exact: true}
		default:
			logger.Debug("dropping duplicate module instance", "key", raw, "resolved", canonical)
		}
	}

	out := make([]T, 0, len(chosen))
	emitted := make(map[string]struct{}, len(chosen))
	for _, k := range canonicalKeys {
		k = c.ResolveCanonicalKey(k)
		if _, done := emitted[k]; done {
			continue
		}
		if p, ok := chosen[k]; ok {
			out = append(out, items[p.idx])
			emitted[k] = struct{}{}
		}
	}
	return out
}
