package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/internal/graph"
	"github.com/drug-repurposing-server/pkg/external"
)

// drugCatalogLimit caps how many approved drugs one analysis scores.
const drugCatalogLimit = 200

// topGenesShown is how many disease genes the summary surfaces.
const topGenesShown = 10

// dataSources names the upstream databases behind an analysis, surfaced in
// the response metadata.
var dataSources = []string{
	"OpenTargets Platform (disease-gene associations)",
	"ChEMBL (approved drugs)",
	"DGIdb (drug-gene interactions)",
	"ClinicalTrials.gov (active trials)",
}

// AnalysisRecorder persists a summary of each completed analysis. A nil
// recorder disables history.
type AnalysisRecorder interface {
	Record(ctx context.Context, record *domain.AnalysisRecord) error
}

// AnalysisPipeline orchestrates one disease analysis end to end: evidence
// fetch, graph construction, scoring, safety filtering, and response
// assembly.
type AnalysisPipeline struct {
	data     external.DataProvider
	scorer   *Scorer
	safety   *SafetyFilter
	recorder AnalysisRecorder
	logger   *logrus.Logger

	minScore   float64
	maxResults int
}

// NewAnalysisPipeline wires the pipeline stages together. minScore and
// maxResults are the defaults applied when a request leaves them unset.
func NewAnalysisPipeline(
	data external.DataProvider,
	scorer *Scorer,
	safety *SafetyFilter,
	recorder AnalysisRecorder,
	minScore float64,
	maxResults int,
	logger *logrus.Logger,
) *AnalysisPipeline {
	if minScore <= 0 {
		minScore = 0.2
	}
	if maxResults <= 0 {
		maxResults = 20
	}
	return &AnalysisPipeline{
		data:       data,
		scorer:     scorer,
		safety:     safety,
		recorder:   recorder,
		logger:     logger,
		minScore:   minScore,
		maxResults: maxResults,
	}
}

// Analyze runs the full pipeline for one disease. It returns
// domain.ErrDiseaseNotFound (wrapped) when no source resolves the disease;
// per-drug scoring failures are skipped and counted, never fatal.
func (p *AnalysisPipeline) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisResult, error) {
	start := time.Now()

	minScore := req.MinScore
	if minScore <= 0 {
		minScore = p.minScore
	}
	topK := req.TopK
	if topK <= 0 || topK > p.maxResults {
		topK = p.maxResults
	}

	p.logger.WithFields(logrus.Fields{
		"disease":   req.DiseaseName,
		"min_score": minScore,
		"top_k":     topK,
	}).Info("Starting disease analysis")

	disease, err := p.data.FetchDisease(ctx, req.DiseaseName)
	if err != nil {
		return nil, fmt.Errorf("fetching disease %q: %w", req.DiseaseName, err)
	}

	drugs, err := p.data.FetchDrugCatalog(ctx, drugCatalogLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching drug catalog: %w", err)
	}

	kg := graph.Build(disease, drugs)
	stats := kg.Stats()

	p.logger.WithFields(logrus.Fields{
		"nodes": stats.TotalNodes,
		"edges": stats.TotalEdges,
		"drugs": len(drugs),
	}).Info("Knowledge graph built")

	candidates, skipped, err := p.scorer.ScoreAll(disease, drugs, kg, minScore, topK)
	if err != nil {
		return nil, fmt.Errorf("scoring candidates: %w", err)
	}

	var warnings []domain.SafetyWarning
	if p.safety != nil {
		filtered := len(candidates)
		candidates, warnings, err = p.safety.Filter(ctx, candidates, disease.Name)
		if err != nil {
			return nil, fmt.Errorf("safety filtering: %w", err)
		}
		filtered -= len(candidates)
		if filtered > 0 {
			p.logger.WithField("removed", filtered).Info("Candidates removed by safety filter")
		}
	}

	elapsed := time.Since(start)

	result := &domain.AnalysisResult{
		Disease:        summarize(disease),
		Candidates:     candidates,
		SafetyWarnings: warnings,
		Metadata: domain.AnalysisMetadata{
			TotalDrugsAnalyzed: len(drugs),
			DrugsSkipped:       skipped,
			CandidatesFound:    len(candidates),
			CandidatesFiltered: countRemoved(warnings),
			MinScoreThreshold:  minScore,
			GraphStats:         stats,
			AnalysisTime:       elapsed.Seconds(),
			DataSources:        dataSources,
		},
		GeneratedAt: time.Now().UTC(),
	}

	p.record(ctx, disease, result, elapsed)

	p.logger.WithFields(logrus.Fields{
		"disease":    disease.Name,
		"candidates": len(candidates),
		"elapsed":    elapsed.Round(time.Millisecond).String(),
	}).Info("Analysis complete")

	return result, nil
}

// record writes the analysis summary to history. Persistence failures are
// logged and swallowed; history must never fail an analysis.
func (p *AnalysisPipeline) record(ctx context.Context, disease *domain.DiseaseRecord, result *domain.AnalysisResult, elapsed time.Duration) {
	if p.recorder == nil {
		return
	}

	record := &domain.AnalysisRecord{
		DiseaseName:      disease.Name,
		DiseaseID:        disease.ID,
		DrugsAnalyzed:    result.Metadata.TotalDrugsAnalyzed,
		CandidatesFound:  result.Metadata.CandidatesFound,
		ProcessingTimeMS: int(elapsed.Milliseconds()),
		CreatedAt:        result.GeneratedAt,
	}
	if len(result.Candidates) > 0 {
		record.TopCandidate = result.Candidates[0].DrugName
		record.TopScore = result.Candidates[0].CompositeScore
	}

	if err := p.recorder.Record(ctx, record); err != nil {
		p.logger.WithFields(logrus.Fields{
			"disease": disease.Name,
			"error":   err.Error(),
		}).Warn("Failed to record analysis history")
	}
}

func summarize(disease *domain.DiseaseRecord) domain.DiseaseSummary {
	return domain.DiseaseSummary{
		Name:          disease.Name,
		ID:            disease.ID,
		Description:   disease.Description,
		GenesCount:    len(disease.Genes),
		PathwaysCount: len(disease.Pathways),
		IsRare:        disease.IsRare,
		ActiveTrials:  disease.ActiveTrialsCount,
		TopGenes:      head(disease.Genes, topGenesShown),
	}
}

func countRemoved(warnings []domain.SafetyWarning) int {
	n := 0
	for _, w := range warnings {
		if w.Severity == SeverityAbsolute {
			n++
		}
	}
	return n
}
