package graph

// ExpandShortcuts recursively unpacks a path of canonical edges into the
// sequence of original (non-shortcut) edges it represents, in traversal
// order. Non-shortcut edges pass through unchanged.
func ExpandShortcuts(g *Graph, path []EdgeIdx) []EdgeIdx {
	out := make([]EdgeIdx, 0, len(path))
	for _, e := range path {
		out = expandOne(g, e, out)
	}
	return out
}

func expandOne(g *Graph, e EdgeIdx, out []EdgeIdx) []EdgeIdx {
	c0, c1, ok := g.ShortcutChildren(e)
	if !ok {
		return append(out, e)
	}
	out = expandOne(g, c0, out)
	out = expandOne(g, c1, out)
	return out
}
