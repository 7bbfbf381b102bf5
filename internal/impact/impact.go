// Package impact computes blast radius: a level-synchronous breadth-first
// expansion over the reverse-dependency index, seeded from a PR's directly
// changed source files. It operates over files rather than symbols, since
// import edges here are file-to-file.
package impact

import "github.com/ducdmdev/prpulse/internal/reversedeps"

// EdgeType is the closed set of impact-graph edge kinds. Only "imports"
// exists today; the type stays explicit for symmetry with the other closed
// enumerations in the data model.
type EdgeType string

// Imports is the only edge type the import-graph BFS produces.
const Imports EdgeType = "imports"

// Edge is one directed "from imports to" relationship.
type Edge struct {
	From string
	To   string
	Type EdgeType
}

// Graph is the result of a bounded BFS: which files are seeds, which were
// reached transitively, and the edges walked to reach them.
type Graph struct {
	DirectlyChanged    []string
	IndirectlyAffected []string
	Edges              []Edge
}

const defaultMaxDepth = 3

// Build runs a level-synchronous BFS over idx's reverse map, seeded from
// seeds (the PR's directly changed source files), bounded to maxDepth
// (defaulting to 3 when non-positive). Every visited node beyond the seed
// set is indirectly affected; directlyChanged and indirectlyAffected are
// always disjoint, and every edge's "to" lands in one of the two sets.
func Build(seeds []string, idx *reversedeps.Index, maxDepth int) Graph {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	visited := make(map[string]bool, len(seeds))
	direct := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		direct = append(direct, s)
	}

	var edges []Edge
	var indirect []string
	frontier := append([]string{}, direct...)

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for _, importer := range idx.Importers(node) {
				if visited[importer] {
					continue
				}
				edges = append(edges, Edge{From: importer, To: node, Type: Imports})
				visited[importer] = true
				indirect = append(indirect, importer)
				next = append(next, importer)
			}
		}
		frontier = next
	}

	return Graph{DirectlyChanged: direct, IndirectlyAffected: indirect, Edges: edges}
}
