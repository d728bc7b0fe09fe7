package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-repurposing-server/internal/domain"
)

func testDisease() *domain.DiseaseRecord {
	return &domain.DiseaseRecord{
		Name:  "Parkinson's Disease",
		Genes: []string{"SNCA", "LRRK2", "GBA"},
		GeneScores: map[string]float64{
			"SNCA":  0.9,
			"LRRK2": 0.8,
		},
		Pathways: []string{"Autophagy", "Dopamine signaling"},
	}
}

func testDrugs() []domain.DrugRecord {
	return []domain.DrugRecord{
		{
			Name:       "Rapamycin",
			Indication: "Organ Transplant Rejection",
			Mechanism:  "mTORC1 inhibitor via FKBP12 binding",
			Targets:    []string{"MTOR", "LRRK2"},
			Pathways:   []string{"Autophagy", "mTOR signaling"},
		},
		{
			Name:     "Aspirin",
			Targets:  []string{"PTGS2"},
			Pathways: []string{"Prostaglandin synthesis"},
		},
	}
}

func TestBuildNodeAndEdgeCounts(t *testing.T) {
	g := Build(testDisease(), testDrugs())
	stats := g.Stats()

	// 1 disease + 5 genes + 5 pathways + 2 drugs
	assert.Equal(t, 13, stats.TotalNodes)
	// 3 disease-gene + 2 disease-pathway + 3 drug-gene + 3 drug-pathway
	assert.Equal(t, 11, stats.TotalEdges)

	assert.Equal(t, 1, stats.CountsByKind[domain.DiseaseNode])
	assert.Equal(t, 5, stats.CountsByKind[domain.GeneNode])
	assert.Equal(t, 5, stats.CountsByKind[domain.PathwayNode])
	assert.Equal(t, 2, stats.CountsByKind[domain.DrugNode])
	assert.Greater(t, stats.Density, 0.0)
}

func TestSharedNodesAreNotDuplicated(t *testing.T) {
	g := Build(testDisease(), testDrugs())

	// LRRK2 appears both as disease gene and drug target once.
	assert.True(t, g.HasNode(NodeID(domain.GeneNode, "LRRK2")))
	assert.Equal(t, 5, g.Stats().CountsByKind[domain.GeneNode])
}

func TestShortestPathLength(t *testing.T) {
	g := Build(testDisease(), testDrugs())

	disease := NodeID(domain.DiseaseNode, "Parkinson's Disease")
	rapamycin := NodeID(domain.DrugNode, "Rapamycin")
	aspirin := NodeID(domain.DrugNode, "Aspirin")

	// disease -> LRRK2 -> rapamycin
	assert.Equal(t, 2, g.ShortestPathLength(disease, rapamycin))

	// aspirin shares no gene or pathway with the disease
	assert.Equal(t, NoPath, g.ShortestPathLength(disease, aspirin))

	assert.Equal(t, 0, g.ShortestPathLength(disease, disease))
	assert.Equal(t, NoPath, g.ShortestPathLength(disease, "drug:missing"))
}

func TestNeighborsOfKind(t *testing.T) {
	g := Build(testDisease(), testDrugs())

	disease := NodeID(domain.DiseaseNode, "Parkinson's Disease")
	assert.Equal(t, []string{"GBA", "LRRK2", "SNCA"}, g.NeighborsOfKind(disease, domain.GeneNode))
	assert.Equal(t, []string{"Autophagy", "Dopamine signaling"}, g.NeighborsOfKind(disease, domain.PathwayNode))

	// graph intersection agrees with raw-record intersection
	rapamycin := NodeID(domain.DrugNode, "Rapamycin")
	assert.Equal(t, []string{"LRRK2", "MTOR"}, g.NeighborsOfKind(rapamycin, domain.GeneNode))

	assert.Empty(t, g.NeighborsOfKind("drug:missing", domain.GeneNode))
}

func TestStatsIdempotentAndSmallGraphDensity(t *testing.T) {
	g := Build(testDisease(), testDrugs())
	assert.Equal(t, g.Stats(), g.Stats())

	single := Build(&domain.DiseaseRecord{Name: "Lonely"}, nil)
	assert.Equal(t, 0.0, single.Stats().Density)
	assert.Equal(t, 1, single.Stats().TotalNodes)
}

func TestBuildToleratesEmptyOptionalFields(t *testing.T) {
	disease := &domain.DiseaseRecord{Name: "Sparse Disease"}
	drugs := []domain.DrugRecord{{Name: "Bare Drug"}}

	g := Build(disease, drugs)
	stats := g.Stats()

	assert.Equal(t, 2, stats.TotalNodes)
	assert.Equal(t, 0, stats.TotalEdges)
	assert.Equal(t, 0.0, stats.Density)
}

func TestNodeAttributes(t *testing.T) {
	disease := testDisease()
	disease.Description = "progressive neurodegenerative disorder"
	disease.IsRare = true
	disease.ActiveTrialsCount = 30

	g := Build(disease, testDrugs())

	dz, ok := g.NodeByID(NodeID(domain.DiseaseNode, "Parkinson's Disease"))
	require.True(t, ok)
	assert.Equal(t, NodeAttrs{
		Description: "progressive neurodegenerative disorder",
		IsRare:      true,
		TrialCount:  30,
	}, dz.Attrs)

	drug, ok := g.NodeByID(NodeID(domain.DrugNode, "Rapamycin"))
	require.True(t, ok)
	assert.Equal(t, "Organ Transplant Rejection", drug.Attrs.Indication)
	assert.Equal(t, "mTORC1 inhibitor via FKBP12 binding", drug.Attrs.Mechanism)

	gene, ok := g.NodeByID(NodeID(domain.GeneNode, "SNCA"))
	require.True(t, ok)
	assert.Equal(t, NodeAttrs{}, gene.Attrs)

	_, ok = g.NodeByID("drug:missing")
	assert.False(t, ok)
}

func TestDrugEdgesAreUnrestricted(t *testing.T) {
	g := Build(testDisease(), testDrugs())

	// MTOR is not a disease gene but must still be in the graph as a
	// rapamycin target.
	assert.True(t, g.HasNode(NodeID(domain.GeneNode, "MTOR")))
	assert.True(t, g.HasNode(NodeID(domain.PathwayNode, "mTOR signaling")))
}
