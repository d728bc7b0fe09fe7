// Package graph builds the per-query knowledge graph joining one disease
// with the drug catalog through shared gene and pathway nodes.
package graph

import (
	"sort"

	"github.com/drug-repurposing-server/internal/domain"
)

// Edge weights for relations that carry no per-entity confidence.
const (
	diseasePathwayWeight = 0.7
	drugTargetWeight     = 0.8
	drugPathwayWeight    = 0.6
	defaultGeneScore     = 0.5
)

// NoPath is the sentinel returned by ShortestPathLength when the two nodes
// are disconnected or either is absent.
const NoPath = -1

// NodeAttrs is the small attribute bag carried by disease and drug nodes.
// Gene and pathway nodes are bare identifiers and carry the zero value.
type NodeAttrs struct {
	Description string
	IsRare      bool
	TrialCount  int
	Indication  string
	Mechanism   string
}

// Node is one entity in the knowledge graph
type Node struct {
	ID    string
	Kind  domain.NodeKind
	Name  string
	Attrs NodeAttrs
}

// Edge is one typed, weighted relation between two nodes
type Edge struct {
	From     string
	To       string
	Relation domain.Relation
	Weight   float64
}

// KnowledgeGraph is an immutable heterogeneous graph over disease, gene,
// pathway and drug nodes for a single query. Construction is a single pass;
// concurrent reads after construction need no synchronization.
type KnowledgeGraph struct {
	nodes map[string]Node
	edges []Edge

	// adjacency is the undirected simple-graph view used by path queries;
	// parallel edges between the same pair collapse to one entry.
	adjacency map[string]map[string]bool
}

// NodeID builds the canonical node identifier for a kind/name pair. IDs are
// kind-prefixed so a gene and a pathway sharing a name never collide.
func NodeID(kind domain.NodeKind, name string) string {
	return string(kind) + ":" + name
}

// Build constructs the knowledge graph from one disease record and a drug
// catalog. Drug edges are added for every target and pathway of every drug,
// not only disease-relevant ones, so path queries can traverse through any
// shared biology. Missing optional fields are treated as empty.
func Build(disease *domain.DiseaseRecord, drugs []domain.DrugRecord) *KnowledgeGraph {
	g := &KnowledgeGraph{
		nodes:     make(map[string]Node),
		adjacency: make(map[string]map[string]bool),
	}

	diseaseID := NodeID(domain.DiseaseNode, disease.Name)
	g.addNode(diseaseID, domain.DiseaseNode, disease.Name, NodeAttrs{
		Description: disease.Description,
		IsRare:      disease.IsRare,
		TrialCount:  disease.ActiveTrialsCount,
	})

	for _, gene := range disease.Genes {
		geneID := NodeID(domain.GeneNode, gene)
		g.addNode(geneID, domain.GeneNode, gene, NodeAttrs{})

		weight := defaultGeneScore
		if s, ok := disease.GeneScores[gene]; ok {
			weight = s
		}
		g.addEdge(diseaseID, geneID, domain.AssociatedWith, weight)
	}

	for _, pw := range disease.Pathways {
		pwID := NodeID(domain.PathwayNode, pw)
		g.addNode(pwID, domain.PathwayNode, pw, NodeAttrs{})
		g.addEdge(diseaseID, pwID, domain.InvolvesPathway, diseasePathwayWeight)
	}

	for _, drug := range drugs {
		drugID := NodeID(domain.DrugNode, drug.Name)
		g.addNode(drugID, domain.DrugNode, drug.Name, NodeAttrs{
			Indication: drug.Indication,
			Mechanism:  drug.Mechanism,
		})

		for _, gene := range drug.Targets {
			geneID := NodeID(domain.GeneNode, gene)
			g.addNode(geneID, domain.GeneNode, gene, NodeAttrs{})
			g.addEdge(drugID, geneID, domain.Targets, drugTargetWeight)
		}

		for _, pw := range drug.Pathways {
			pwID := NodeID(domain.PathwayNode, pw)
			g.addNode(pwID, domain.PathwayNode, pw, NodeAttrs{})
			g.addEdge(drugID, pwID, domain.ModulatesPathway, drugPathwayWeight)
		}
	}

	return g
}

func (g *KnowledgeGraph) addNode(id string, kind domain.NodeKind, name string, attrs NodeAttrs) {
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = Node{ID: id, Kind: kind, Name: name, Attrs: attrs}
	g.adjacency[id] = make(map[string]bool)
}

func (g *KnowledgeGraph) addEdge(from, to string, rel domain.Relation, weight float64) {
	g.edges = append(g.edges, Edge{From: from, To: to, Relation: rel, Weight: weight})
	g.adjacency[from][to] = true
	g.adjacency[to][from] = true
}

// HasNode reports whether a node with the given ID exists
func (g *KnowledgeGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeByID returns the node with the given ID and whether it exists
func (g *KnowledgeGraph) NodeByID(id string) (Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// ShortestPathLength returns the minimum undirected hop count between two
// nodes, or NoPath when disconnected or either node is absent.
func (g *KnowledgeGraph) ShortestPathLength(from, to string) int {
	if !g.HasNode(from) || !g.HasNode(to) {
		return NoPath
	}
	if from == to {
		return 0
	}

	visited := map[string]bool{from: true}
	frontier := []string{from}
	depth := 0

	for len(frontier) > 0 {
		depth++
		var next []string
		for _, node := range frontier {
			for neighbor := range g.adjacency[node] {
				if visited[neighbor] {
					continue
				}
				if neighbor == to {
					return depth
				}
				visited[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return NoPath
}

// NeighborsOfKind returns the sorted names of a node's direct neighbors of
// the given kind. Absent nodes yield an empty result, never an error.
func (g *KnowledgeGraph) NeighborsOfKind(id string, kind domain.NodeKind) []string {
	neighbors, ok := g.adjacency[id]
	if !ok {
		return nil
	}

	var names []string
	for nid := range neighbors {
		if node := g.nodes[nid]; node.Kind == kind {
			names = append(names, node.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Stats summarizes the graph. Density uses the undirected simple-graph
// approximation and is 0 for graphs with fewer than 2 nodes.
func (g *KnowledgeGraph) Stats() domain.GraphStats {
	counts := make(map[domain.NodeKind]int)
	for _, node := range g.nodes {
		counts[node.Kind]++
	}

	n := len(g.nodes)
	density := 0.0
	if n >= 2 {
		density = float64(len(g.edges)) / (float64(n) * float64(n-1) / 2.0)
	}

	return domain.GraphStats{
		TotalNodes:   n,
		TotalEdges:   len(g.edges),
		CountsByKind: counts,
		Density:      density,
	}
}
