package domain

import (
	"time"
)

// Core Enums and Types

// ConfidenceLevel represents the confidence band assigned to a candidate
type ConfidenceLevel string

const (
	HIGH   ConfidenceLevel = "high"
	MEDIUM ConfidenceLevel = "medium"
	LOW    ConfidenceLevel = "low"
)

// String returns the string form of the confidence level
func (c ConfidenceLevel) String() string {
	return string(c)
}

// NodeKind identifies the kind of a knowledge graph node
type NodeKind string

const (
	DiseaseNode NodeKind = "disease"
	GeneNode    NodeKind = "gene"
	PathwayNode NodeKind = "pathway"
	DrugNode    NodeKind = "drug"
)

// Relation identifies the type of a knowledge graph edge
type Relation string

const (
	AssociatedWith   Relation = "associated_with"
	InvolvesPathway  Relation = "involves_pathway"
	Targets          Relation = "targets"
	ModulatesPathway Relation = "modulates_pathway"
)

// Core Data Models

// DiseaseRecord is the resolved evidence bundle for one disease query.
// It is constructed once per query by the data layer and passed by
// read-only reference into the graph builder and scorer.
type DiseaseRecord struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Description string `json:"description"`

	// Genes is ordered by evidence rank from the source.
	Genes []string `json:"genes"`

	// GeneScores maps gene symbol to association strength in [0,1].
	// Genes absent from this map default to 0.5 when consumed.
	GeneScores map[string]float64 `json:"gene_scores"`

	Pathways []string `json:"pathways"`

	IsRare            bool   `json:"is_rare"`
	ActiveTrialsCount int    `json:"active_trials_count"`
	Source            string `json:"source,omitempty"`
}

// DrugRecord is one catalog entry for an approved drug
type DrugRecord struct {
	Name       string   `json:"name"`
	ID         string   `json:"id"`
	Indication string   `json:"indication"`
	Mechanism  string   `json:"mechanism"`
	Targets    []string `json:"targets"`
	Pathways   []string `json:"pathways"`
	Approved   bool     `json:"approved"`
}

// SubScores holds the four independent evidence sub-scores, each in [0,1]
// before weighting and bonuses
type SubScores struct {
	Gene       float64 `json:"gene"`
	Pathway    float64 `json:"pathway"`
	Mechanism  float64 `json:"mechanism"`
	Literature float64 `json:"literature"`
}

// CandidateScore is the scorer output for one qualifying drug
type CandidateScore struct {
	DrugName   string `json:"drug_name"`
	DrugID     string `json:"drug_id"`
	Indication string `json:"indication"`
	Mechanism  string `json:"mechanism"`

	CompositeScore float64   `json:"composite_score"`
	SubScores      SubScores `json:"sub_scores"`

	SharedGenes    []string `json:"shared_genes"`
	SharedPathways []string `json:"shared_pathways"`

	Confidence ConfidenceLevel `json:"confidence"`

	// ExplanationFragments are short score annotations consumed by a
	// downstream explanation generator, not prose themselves.
	ExplanationFragments []string `json:"explanation_fragments"`

	// GraphDistance is the undirected hop count between the drug node and
	// the disease node, or -1 when disconnected. Diagnostic only.
	GraphDistance int `json:"graph_distance"`
}

// ScoringWeights holds the composite weight split for the four sub-scores.
// The split must sum to 1.0 and gene+pathway must exceed 0.60 so
// molecular-target evidence dominates mechanism narrative and precedent.
type ScoringWeights struct {
	Gene       float64 `mapstructure:"gene" json:"gene"`
	Pathway    float64 `mapstructure:"pathway" json:"pathway"`
	Mechanism  float64 `mapstructure:"mechanism" json:"mechanism"`
	Literature float64 `mapstructure:"literature" json:"literature"`
}

// DefaultScoringWeights returns the reference weight split
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Gene:       0.40,
		Pathway:    0.35,
		Mechanism:  0.15,
		Literature: 0.10,
	}
}

// Valid reports whether the weights sum to 1.0 (within epsilon) and the
// molecular-target share (gene+pathway) exceeds 0.60
func (w ScoringWeights) Valid() bool {
	sum := w.Gene + w.Pathway + w.Mechanism + w.Literature
	if sum < 0.999 || sum > 1.001 {
		return false
	}
	return w.Gene+w.Pathway > 0.60
}

// Request/Response Models

// AnalyzeRequest represents an incoming disease analysis request
type AnalyzeRequest struct {
	DiseaseName string  `json:"disease_name"`
	MinScore    float64 `json:"min_score"`
	TopK        int     `json:"top_k"`
}

// DiseaseSummary is the disease portion of an analysis response
type DiseaseSummary struct {
	Name          string   `json:"name"`
	ID            string   `json:"id"`
	Description   string   `json:"description"`
	GenesCount    int      `json:"genes_count"`
	PathwaysCount int      `json:"pathways_count"`
	IsRare        bool     `json:"is_rare"`
	ActiveTrials  int      `json:"active_trials"`
	TopGenes      []string `json:"top_genes"`
}

// GraphStats summarizes a built knowledge graph for observability
type GraphStats struct {
	TotalNodes   int              `json:"total_nodes"`
	TotalEdges   int              `json:"total_edges"`
	CountsByKind map[NodeKind]int `json:"counts_by_kind"`
	Density      float64          `json:"density"`
}

// AnalysisMetadata carries diagnostic counts for operators
type AnalysisMetadata struct {
	TotalDrugsAnalyzed int        `json:"total_drugs_analyzed"`
	DrugsSkipped       int        `json:"drugs_skipped"`
	CandidatesFound    int        `json:"candidates_found"`
	CandidatesFiltered int        `json:"candidates_filtered"`
	MinScoreThreshold  float64    `json:"min_score_threshold"`
	GraphStats         GraphStats `json:"graph_stats"`
	AnalysisTime       float64    `json:"analysis_time_seconds"`
	DataSources        []string   `json:"data_sources"`
}

// SafetyWarning annotates a candidate flagged by the safety filter
type SafetyWarning struct {
	DrugName string `json:"drug_name"`
	Severity string `json:"severity"`
	Reason   string `json:"reason"`
	Source   string `json:"source"`
}

// AnalysisResult is the complete response for one disease analysis
type AnalysisResult struct {
	Disease        DiseaseSummary   `json:"disease"`
	Candidates     []CandidateScore `json:"candidates"`
	SafetyWarnings []SafetyWarning  `json:"safety_warnings,omitempty"`
	Metadata       AnalysisMetadata `json:"metadata"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// AnalysisRecord is a stored summary of a completed analysis
type AnalysisRecord struct {
	ID               int64     `json:"id,omitempty"`
	DiseaseName      string    `json:"disease_name"`
	DiseaseID        string    `json:"disease_id"`
	DrugsAnalyzed    int       `json:"drugs_analyzed"`
	CandidatesFound  int       `json:"candidates_found"`
	TopCandidate     string    `json:"top_candidate"`
	TopScore         float64   `json:"top_score"`
	ProcessingTimeMS int       `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
