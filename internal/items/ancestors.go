package items

// ResolveLibraries maps each item's canonical id to the canonical id of the
// library root it belongs to. It makes one pass to collect the roots and one
// pass over the ancestor lists, so cost is linear in items plus ancestor
// edges. When several ancestors are roots the first one listed wins; sources
// do not guarantee any particular order. Items without a root ancestor are
// absent from the result.
func ResolveLibraries(raw []RawItem) map[string]string {
	roots := make(map[string]struct{})
	for i := range raw {
		if raw[i].IsLibraryRoot() {
			roots[NormalizeID(raw[i].ID)] = struct{}{}
		}
	}

	libraries := make(map[string]string, len(raw))
	if len(roots) == 0 {
		return libraries
	}

	for i := range raw {
		if raw[i].IsLibraryRoot() {
			continue
		}
		for _, ancestor := range raw[i].AncestorIDs {
			id := NormalizeID(ancestor)
			if _, ok := roots[id]; ok {
				libraries[NormalizeID(raw[i].ID)] = id
				break
			}
		}
	}

	return libraries
}
