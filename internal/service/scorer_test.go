package service

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/internal/graph"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	scorer, err := NewScorer(domain.ScoringWeights{}, logger)
	require.NoError(t, err)
	return scorer
}

func scenarioDisease() *domain.DiseaseRecord {
	return &domain.DiseaseRecord{
		Name:  "TestDz",
		Genes: []string{"G1", "G2", "G3"},
		GeneScores: map[string]float64{
			"G1": 0.9,
			"G2": 0.8,
			"G3": 0.5,
		},
		Pathways: []string{"P1"},
	}
}

func TestNewScorerRejectsInvalidWeights(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	tests := []struct {
		name    string
		weights domain.ScoringWeights
		wantErr bool
	}{
		{"zero value selects defaults", domain.ScoringWeights{}, false},
		{"reference defaults", domain.DefaultScoringWeights(), false},
		{"does not sum to one", domain.ScoringWeights{Gene: 0.5, Pathway: 0.3, Mechanism: 0.1, Literature: 0.05}, true},
		{"molecular evidence below 60 percent", domain.ScoringWeights{Gene: 0.3, Pathway: 0.3, Mechanism: 0.2, Literature: 0.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScorer(tt.weights, logger)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScoreSharedEvidenceScenario(t *testing.T) {
	scorer := newTestScorer(t)
	disease := scenarioDisease()
	drug := domain.DrugRecord{
		Name:     "D1",
		Targets:  []string{"G1", "G2"},
		Pathways: []string{"P1"},
	}

	candidate, err := scorer.Score(disease, &drug, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"G1", "G2"}, candidate.SharedGenes)
	assert.Equal(t, []string{"P1"}, candidate.SharedPathways)
	assert.Greater(t, candidate.SubScores.Gene, 0.0)
	assert.GreaterOrEqual(t, candidate.SubScores.Pathway, 0.15)
	assert.Greater(t, candidate.CompositeScore, 0.0)
	assert.Contains(t, []domain.ConfidenceLevel{domain.MEDIUM, domain.HIGH}, candidate.Confidence)
	assert.NotEmpty(t, candidate.ExplanationFragments)
}

func TestScoreZeroEvidenceDrug(t *testing.T) {
	scorer := newTestScorer(t)
	drug := domain.DrugRecord{Name: "D2"}

	candidate, err := scorer.Score(scenarioDisease(), &drug, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, candidate.SubScores.Gene)
	assert.Equal(t, 0.0, candidate.SubScores.Pathway)
	assert.Equal(t, 0.0, candidate.SubScores.Mechanism)
	assert.Equal(t, 0.0, candidate.CompositeScore)
	assert.Empty(t, candidate.SharedGenes)
	assert.Equal(t, domain.LOW, candidate.Confidence)
}

func TestScoreBounds(t *testing.T) {
	scorer := newTestScorer(t)

	// Maximal evidence: rare disease, many strong shared genes, critical
	// shared pathways, matching mechanism and literature precedent.
	disease := &domain.DiseaseRecord{
		Name:        "Parkinson's Disease",
		Description: "neurodegeneration with autophagy and lysosomal dysfunction",
		Genes:       []string{"G1", "G2", "G3", "G4", "G5", "G6"},
		GeneScores: map[string]float64{
			"G1": 1.0, "G2": 1.0, "G3": 1.0, "G4": 1.0, "G5": 1.0, "G6": 1.0,
		},
		Pathways: []string{"Autophagy", "Mitophagy", "Lysosomal function"},
		IsRare:   true,
	}
	drug := domain.DrugRecord{
		Name:      "Nilotinib",
		Mechanism: "kinase inhibitor and autophagy inducer, neuroprotective",
		Targets:   []string{"G1", "G2", "G3", "G4", "G5", "G6"},
		Pathways:  []string{"Autophagy", "Mitophagy", "Lysosomal function"},
	}

	candidate, err := scorer.Score(disease, &drug, nil)
	require.NoError(t, err)

	for name, score := range map[string]float64{
		"gene":       candidate.SubScores.Gene,
		"pathway":    candidate.SubScores.Pathway,
		"mechanism":  candidate.SubScores.Mechanism,
		"literature": candidate.SubScores.Literature,
		"composite":  candidate.CompositeScore,
	} {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 1.0, name)
	}
	assert.Equal(t, domain.HIGH, candidate.Confidence)
}

func TestScoreGeneMonotonicity(t *testing.T) {
	scorer := newTestScorer(t)
	disease := &domain.DiseaseRecord{
		Name:     "TestDz",
		Genes:    []string{"G1", "G2", "G3", "G4", "G5"},
		Pathways: []string{"P1"},
	}

	fewer := domain.DrugRecord{Name: "D", Targets: []string{"G1"}}
	more := domain.DrugRecord{Name: "D", Targets: []string{"G1", "G2"}}

	a, err := scorer.Score(disease, &fewer, nil)
	require.NoError(t, err)
	b, err := scorer.Score(disease, &more, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, b.CompositeScore, a.CompositeScore)
}

func TestScoreDiseaseWithoutGenes(t *testing.T) {
	scorer := newTestScorer(t)
	disease := &domain.DiseaseRecord{
		Name:     "GeneFreeDz",
		Pathways: []string{"Autophagy"},
	}
	drug := domain.DrugRecord{
		Name:     "D1",
		Targets:  []string{"G1", "G2"},
		Pathways: []string{"Autophagy"},
	}

	candidate, err := scorer.Score(disease, &drug, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, candidate.SubScores.Gene)
	assert.Greater(t, candidate.SubScores.Pathway, 0.0)
	assert.Greater(t, candidate.CompositeScore, 0.0)
}

func TestScoreRejectsMalformedRecords(t *testing.T) {
	scorer := newTestScorer(t)

	_, err := scorer.Score(&domain.DiseaseRecord{}, &domain.DrugRecord{Name: "D"}, nil)
	assert.Error(t, err)

	_, err = scorer.Score(scenarioDisease(), &domain.DrugRecord{}, nil)
	assert.Error(t, err)
}

func TestConfidenceOverrideForStrongGeneEvidence(t *testing.T) {
	scorer := newTestScorer(t)

	// 50 disease genes with weak association scores dilute the gene
	// sub-score, so the composite stays below the medium threshold; the
	// five-gene override must still prevent a low classification.
	genes := make([]string, 50)
	scores := make(map[string]float64, 50)
	for i := range genes {
		genes[i] = fmt.Sprintf("G%d", i+1)
		scores[genes[i]] = 0.1
	}
	disease := &domain.DiseaseRecord{
		Name:       "DiluteDz",
		Genes:      genes,
		GeneScores: scores,
	}
	drug := domain.DrugRecord{
		Name:    "D1",
		Targets: []string{"G1", "G2", "G3", "G4", "G5"},
	}

	candidate, err := scorer.Score(disease, &drug, nil)
	require.NoError(t, err)

	assert.Len(t, candidate.SharedGenes, 5)
	assert.Less(t, candidate.CompositeScore, 0.15)
	assert.Equal(t, domain.MEDIUM, candidate.Confidence)
}

func TestScoreLiteraturePrecedent(t *testing.T) {
	scorer := newTestScorer(t)
	disease := &domain.DiseaseRecord{Name: "Parkinson's Disease"}

	known := domain.DrugRecord{Name: "Nilotinib"}
	candidate, err := scorer.Score(disease, &known, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.8, candidate.SubScores.Literature)

	unknown := domain.DrugRecord{Name: "Metformin"}
	candidate, err = scorer.Score(disease, &unknown, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, candidate.SubScores.Literature)
}

func TestScoreMechanismAlignment(t *testing.T) {
	scorer := newTestScorer(t)
	disease := &domain.DiseaseRecord{
		Name:        "Parkinson's Disease",
		Description: "progressive neurodegeneration with lysosomal dysfunction",
	}

	aligned := domain.DrugRecord{Name: "D1", Mechanism: "Autophagy inducer via mTOR inhibition"}
	candidate, err := scorer.Score(disease, &aligned, nil)
	require.NoError(t, err)
	assert.Greater(t, candidate.SubScores.Mechanism, 0.0)

	empty := domain.DrugRecord{Name: "D2"}
	candidate, err = scorer.Score(disease, &empty, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, candidate.SubScores.Mechanism)
}

func TestPathwayWeight(t *testing.T) {
	assert.Equal(t, 1.0, pathwayWeight("Autophagy"))
	assert.Equal(t, 0.8, pathwayWeight("mTOR signaling"))

	// substring fallback
	assert.Equal(t, 1.0, pathwayWeight("Autophagy-lysosomal pathway"))

	// unknown pathway
	assert.Equal(t, defaultPathwayWeight, pathwayWeight("Quorum sensing"))
}

func TestScoreAllRankingAndFiltering(t *testing.T) {
	scorer := newTestScorer(t)
	disease := &domain.DiseaseRecord{
		Name:     "TestDz",
		Genes:    []string{"G1", "G2", "G3", "G4", "G5"},
		Pathways: []string{"P1"},
	}
	drugs := []domain.DrugRecord{
		{Name: "OneHit", Targets: []string{"G1"}, Pathways: []string{"P1"}},
		{Name: "FourHits", Targets: []string{"G1", "G2", "G3", "G4"}, Pathways: []string{"P1"}},
		{Name: "NoEvidence"},
	}

	g := graph.Build(disease, drugs)
	candidates, skipped, err := scorer.ScoreAll(disease, drugs, g, 0.2, 20)
	require.NoError(t, err)

	assert.Equal(t, 0, skipped)
	require.Len(t, candidates, 2)
	assert.Equal(t, "FourHits", candidates[0].DrugName)
	assert.Equal(t, "OneHit", candidates[1].DrugName)
	assert.Greater(t, candidates[0].CompositeScore, candidates[1].CompositeScore)
	assert.Equal(t, 2, candidates[0].GraphDistance)
}

func TestScoreAllTieBreaksByName(t *testing.T) {
	scorer := newTestScorer(t)
	disease := scenarioDisease()
	drugs := []domain.DrugRecord{
		{Name: "Zeta", Targets: []string{"G1"}, Pathways: []string{"P1"}},
		{Name: "Alpha", Targets: []string{"G1"}, Pathways: []string{"P1"}},
	}

	candidates, _, err := scorer.ScoreAll(disease, drugs, nil, 0.0, 10)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, candidates[0].CompositeScore, candidates[1].CompositeScore)
	assert.Equal(t, "Alpha", candidates[0].DrugName)
	assert.Equal(t, "Zeta", candidates[1].DrugName)
}

func TestScoreAllSkipsMalformedDrugs(t *testing.T) {
	scorer := newTestScorer(t)
	drugs := []domain.DrugRecord{
		{Name: ""},
		{Name: "Valid", Targets: []string{"G1"}, Pathways: []string{"P1"}},
	}

	candidates, skipped, err := scorer.ScoreAll(scenarioDisease(), drugs, nil, 0.0, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Valid", candidates[0].DrugName)
}

func TestScoreAllDeterministic(t *testing.T) {
	scorer := newTestScorer(t)
	disease := scenarioDisease()
	drugs := []domain.DrugRecord{
		{Name: "D1", Targets: []string{"G2", "G1"}, Pathways: []string{"P1"}},
		{Name: "D2", Targets: []string{"G3"}, Pathways: []string{"P1"}},
	}

	first, _, err := scorer.ScoreAll(disease, drugs, nil, 0.0, 10)
	require.NoError(t, err)
	second, _, err := scorer.ScoreAll(disease, drugs, nil, 0.0, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"G1", "G2"}, first[0].SharedGenes)
}

func TestScoreAllRespectsTopK(t *testing.T) {
	scorer := newTestScorer(t)
	disease := scenarioDisease()
	var drugs []domain.DrugRecord
	for i := 0; i < 5; i++ {
		drugs = append(drugs, domain.DrugRecord{
			Name:     fmt.Sprintf("D%d", i),
			Targets:  []string{"G1"},
			Pathways: []string{"P1"},
		})
	}

	candidates, _, err := scorer.ScoreAll(disease, drugs, nil, 0.0, 3)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}
