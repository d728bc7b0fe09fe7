package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/internal/graph"
)

// pathwayWeights holds importance weights keyed by biological relevance.
// Specific mechanistic pathways outweigh generic signaling pathways.
var pathwayWeights = map[string]float64{
	// Critical pathways for neurodegeneration and rare diseases
	"Autophagy":                   1.0,
	"Mitophagy":                   1.0,
	"Lysosomal function":          1.0,
	"Mitochondrial function":      0.9,
	"Ubiquitin-proteasome system": 0.9,
	"Protein aggregation":         0.9,
	"Alpha-synuclein aggregation": 1.0,
	"Huntingtin aggregation":      1.0,

	// Metabolic pathways
	"Sphingolipid metabolism": 0.9,
	"Glycogen metabolism":     0.8,
	"Lipid metabolism":        0.8,
	"Cholesterol metabolism":  0.8,
	"Glucose metabolism":      0.8,
	"Copper metabolism":       0.9,

	// Neurotransmitter pathways
	"Dopamine metabolism":   1.0,
	"Dopamine biosynthesis": 1.0,
	"Monoamine oxidase":     0.9,

	// Signaling pathways
	"mTOR signaling":        0.8,
	"PI3K-Akt signaling":    0.7,
	"MAPK signaling":        0.7,
	"Inflammatory response": 0.7,
	"NF-kB signaling":       0.7,
	"RAS signaling":         0.7,

	// Other pathways
	"Oxidative stress response": 0.8,
	"DNA repair":                0.7,
	"Cell cycle regulation":     0.6,
	"Apoptosis":                 0.6,
	"Microtubule stability":     0.7,
	"Tau protein function":      0.8,
}

// defaultPathwayWeight is used for pathways absent from the importance table
const defaultPathwayWeight = 0.6

// criticalPathways trigger the critical-pathway bonus when shared
var criticalPathways = map[string]bool{
	"Autophagy":                   true,
	"Lysosomal function":          true,
	"Mitophagy":                   true,
	"Dopamine metabolism":         true,
	"Alpha-synuclein aggregation": true,
}

// mechanismKeywords maps mechanism-of-action phrases to disease keywords
// that indicate alignment. Each pairing found awards a fixed increment.
var mechanismKeywords = map[string][]string{
	"lysosomal storage":   {"lysosomal", "storage", "gaucher", "fabry", "pompe"},
	"enzyme replacement":  {"lysosomal", "storage", "enzyme", "deficiency"},
	"autophagy inducer":   {"autophagy", "lysosomal", "parkinson", "huntington"},
	"chaperone":           {"misfolding", "protein", "lysosomal", "gaucher", "fabry"},
	"substrate reduction": {"lysosomal", "storage", "sphingolipid"},
	"antioxidant":         {"oxidative", "mitochondrial", "neurodegeneration"},
	"anti-inflammatory":   {"inflammation", "inflammatory"},
	"kinase inhibitor":    {"kinase", "signaling", "proliferation"},
	"neuroprotective":     {"neuro", "parkinson", "alzheimer", "huntington"},
}

// literatureCase is one documented repurposing precedent
type literatureCase struct {
	drug    string
	disease string
	score   float64
}

// knownRepurposingCases is a small allow-list of well-documented
// repurposing successes, matched by case-insensitive substring.
var knownRepurposingCases = []literatureCase{
	// Parkinson's disease
	{"nilotinib", "parkinson", 0.8},
	{"ambroxol", "parkinson", 0.7},
	{"exenatide", "parkinson", 0.7},
	{"imatinib", "parkinson", 0.6},
	{"rasagiline", "parkinson", 0.75},
	{"selegiline", "parkinson", 0.7},
	{"apomorphine", "parkinson", 0.9},

	// Huntington's disease
	{"pridopidine", "huntington", 0.7},
	{"tetrabenazine", "huntington", 0.9},

	// ALS
	{"riluzole", "als", 0.95},
	{"edaravone", "als", 0.9},

	// Alzheimer's
	{"donepezil", "alzheimer", 0.95},
	{"memantine", "alzheimer", 0.95},

	// Gaucher disease
	{"imiglucerase", "gaucher", 0.95},
	{"eliglustat", "gaucher", 0.9},

	// Wilson disease
	{"penicillamine", "wilson", 0.95},
	{"trientine", "wilson", 0.9},
}

// geneNormalizationCap prevents dilution for well-studied diseases with
// very large gene lists.
const geneNormalizationCap = 50

// Scorer computes evidence-weighted repurposing scores for drug candidates
// against a single disease.
type Scorer struct {
	weights domain.ScoringWeights
	logger  *logrus.Logger
}

// NewScorer creates a scorer with the given weight split. A zero-value
// weight struct selects the reference defaults.
func NewScorer(weights domain.ScoringWeights, logger *logrus.Logger) (*Scorer, error) {
	if weights == (domain.ScoringWeights{}) {
		weights = domain.DefaultScoringWeights()
	}
	if !weights.Valid() {
		return nil, fmt.Errorf("invalid scoring weights: must sum to 1.0 with gene+pathway > 0.60, got %+v", weights)
	}
	return &Scorer{weights: weights, logger: logger}, nil
}

// Score computes the candidate score for one drug against the disease.
// Empty targets/pathways/mechanism degrade to zero sub-scores; only a
// malformed record (missing name) is an error.
func (s *Scorer) Score(disease *domain.DiseaseRecord, drug *domain.DrugRecord, g *graph.KnowledgeGraph) (domain.CandidateScore, error) {
	if disease == nil || disease.Name == "" {
		return domain.CandidateScore{}, domain.NewMalformedRecordError("disease", "", "missing name")
	}
	if drug.Name == "" {
		return domain.CandidateScore{}, domain.NewMalformedRecordError("drug", drug.ID, "missing name")
	}

	geneScore, sharedGenes := s.scoreGeneOverlap(disease, drug)
	pathwayScore, sharedPathways := s.scorePathwayOverlap(disease, drug)
	mechanismScore := s.scoreMechanism(disease, drug)
	literatureScore := s.scoreLiterature(disease, drug)

	composite := geneScore*s.weights.Gene +
		pathwayScore*s.weights.Pathway +
		mechanismScore*s.weights.Mechanism +
		literatureScore*s.weights.Literature

	var fragments []string
	composite, fragments = s.applyBonuses(composite, disease, sharedGenes, sharedPathways)
	composite = clamp01(composite)

	candidate := domain.CandidateScore{
		DrugName:   drug.Name,
		DrugID:     drug.ID,
		Indication: drug.Indication,
		Mechanism:  drug.Mechanism,

		CompositeScore: composite,
		SubScores: domain.SubScores{
			Gene:       geneScore,
			Pathway:    pathwayScore,
			Mechanism:  mechanismScore,
			Literature: literatureScore,
		},

		SharedGenes:    sharedGenes,
		SharedPathways: sharedPathways,
		Confidence:     s.determineConfidence(composite, len(sharedGenes), len(sharedPathways)),
		GraphDistance:  graph.NoPath,
	}

	if g != nil {
		candidate.GraphDistance = g.ShortestPathLength(
			graph.NodeID(domain.DiseaseNode, disease.Name),
			graph.NodeID(domain.DrugNode, drug.Name),
		)
	}

	candidate.ExplanationFragments = s.buildExplanations(candidate, fragments)

	s.logger.WithFields(logrus.Fields{
		"drug":            drug.Name,
		"disease":         disease.Name,
		"composite":       composite,
		"shared_genes":    len(sharedGenes),
		"shared_pathways": len(sharedPathways),
		"confidence":      candidate.Confidence,
	}).Debug("Scored drug-disease pair")

	return candidate, nil
}

// ScoreAll scores the full catalog, skipping malformed drug records, and
// returns the ranked candidate list truncated to topK plus the count of
// skipped records. Candidates below minScore are excluded.
func (s *Scorer) ScoreAll(disease *domain.DiseaseRecord, drugs []domain.DrugRecord, g *graph.KnowledgeGraph, minScore float64, topK int) ([]domain.CandidateScore, int, error) {
	if disease == nil || disease.Name == "" {
		return nil, 0, domain.NewMalformedRecordError("disease", "", "missing name")
	}

	candidates := make([]domain.CandidateScore, 0, len(drugs))
	skipped := 0

	for i := range drugs {
		candidate, err := s.Score(disease, &drugs[i], g)
		if err != nil {
			skipped++
			s.logger.WithFields(logrus.Fields{
				"drug_id": drugs[i].ID,
				"error":   err.Error(),
			}).Warn("Skipping malformed drug record")
			continue
		}
		if candidate.CompositeScore < minScore {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CompositeScore != candidates[j].CompositeScore {
			return candidates[i].CompositeScore > candidates[j].CompositeScore
		}
		if len(candidates[i].SharedGenes) != len(candidates[j].SharedGenes) {
			return len(candidates[i].SharedGenes) > len(candidates[j].SharedGenes)
		}
		return candidates[i].DrugName < candidates[j].DrugName
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	return candidates, skipped, nil
}

// scoreGeneOverlap weights shared genes by their disease-association
// strength, normalizes by a capped disease gene count, and rewards
// multiple independent hits super-linearly.
func (s *Scorer) scoreGeneOverlap(disease *domain.DiseaseRecord, drug *domain.DrugRecord) (float64, []string) {
	if len(drug.Targets) == 0 || len(disease.Genes) == 0 {
		return 0.0, nil
	}

	shared := intersect(disease.Genes, drug.Targets)
	if len(shared) == 0 {
		return 0.0, nil
	}

	weighted := 0.0
	for _, gene := range shared {
		score, ok := disease.GeneScores[gene]
		if !ok {
			score = 0.5
		}
		weighted += score
	}

	normalization := len(disease.Genes)
	if normalization > geneNormalizationCap {
		normalization = geneNormalizationCap
	}
	base := weighted / float64(normalization)

	var multiplier float64
	switch {
	case len(shared) >= 6:
		multiplier = 2.0
	case len(shared) >= 4:
		multiplier = 1.8
	case len(shared) >= 2:
		multiplier = 1.5
	default:
		multiplier = 1.2
	}

	return clamp01(base * multiplier), shared
}

// scorePathwayOverlap computes the importance-weighted shared-pathway ratio
// with floors that keep a single high-value match from vanishing in a long
// disease pathway list.
func (s *Scorer) scorePathwayOverlap(disease *domain.DiseaseRecord, drug *domain.DrugRecord) (float64, []string) {
	if len(drug.Pathways) == 0 || len(disease.Pathways) == 0 {
		return 0.0, nil
	}

	shared := intersect(disease.Pathways, drug.Pathways)
	if len(shared) == 0 {
		return 0.0, nil
	}

	sharedSet := make(map[string]bool, len(shared))
	for _, p := range shared {
		sharedSet[p] = true
	}

	weightedShared := 0.0
	weightedTotal := 0.0
	for _, p := range disease.Pathways {
		w := pathwayWeight(p)
		weightedTotal += w
		if sharedSet[p] {
			weightedShared += w
		}
	}

	base := 0.0
	if weightedTotal > 0 {
		base = weightedShared / weightedTotal
	}

	if len(shared) >= 2 && base < 0.30 {
		base = 0.30
	} else if len(shared) >= 1 && base < 0.15 {
		base = 0.15
	}

	var multiplier float64
	switch {
	case len(shared) >= 3:
		multiplier = 1.5
	case len(shared) >= 2:
		multiplier = 1.3
	default:
		multiplier = 1.0
	}

	return clamp01(base * multiplier), shared
}

// pathwayWeight looks up a pathway's importance weight, falling back to a
// substring match and then the default weight.
func pathwayWeight(pathway string) float64 {
	if w, ok := pathwayWeights[pathway]; ok {
		return w
	}

	lower := strings.ToLower(pathway)
	for key, w := range pathwayWeights {
		keyLower := strings.ToLower(key)
		if strings.Contains(lower, keyLower) || strings.Contains(keyLower, lower) {
			return w
		}
	}

	return defaultPathwayWeight
}

// scoreMechanism awards a fixed increment for each mechanism-category /
// disease-keyword pairing found. Zero when the drug has no mechanism text.
func (s *Scorer) scoreMechanism(disease *domain.DiseaseRecord, drug *domain.DrugRecord) float64 {
	mechanism := strings.ToLower(drug.Mechanism)
	if mechanism == "" {
		return 0.0
	}

	diseaseName := strings.ToLower(disease.Name)
	diseaseDesc := strings.ToLower(disease.Description)

	score := 0.0
	for category, keywords := range mechanismKeywords {
		if !strings.Contains(mechanism, category) {
			continue
		}
		for _, keyword := range keywords {
			if strings.Contains(diseaseName, keyword) || strings.Contains(diseaseDesc, keyword) {
				score += 0.3
			}
		}
	}

	return clamp01(score)
}

// scoreLiterature returns the strongest documented repurposing precedent
// matching both the drug and disease name, or 0 if none apply.
func (s *Scorer) scoreLiterature(disease *domain.DiseaseRecord, drug *domain.DrugRecord) float64 {
	drugLower := strings.ToLower(drug.Name)
	diseaseLower := strings.ToLower(disease.Name)

	best := 0.0
	for _, c := range knownRepurposingCases {
		if strings.Contains(drugLower, c.drug) && strings.Contains(diseaseLower, c.disease) {
			if c.score > best {
				best = c.score
			}
		}
	}
	return best
}

// applyBonuses adds contextual bonuses after the weighted sum. The final
// clamp is the caller's responsibility.
func (s *Scorer) applyBonuses(score float64, disease *domain.DiseaseRecord, sharedGenes, sharedPathways []string) (float64, []string) {
	var fragments []string

	if disease.IsRare {
		score += 0.03
		fragments = append(fragments, "Bonus: Rare disease (+0.03)")
	}

	if n := len(sharedGenes); n >= 1 {
		bonus := math.Min(float64(n)*0.02, 0.10)
		score += bonus
		fragments = append(fragments, fmt.Sprintf("Bonus: %d shared genes (+%.2f)", n, bonus))
	}

	for _, p := range sharedPathways {
		if criticalPathways[p] {
			score += 0.05
			fragments = append(fragments, "Bonus: Critical pathway overlap (+0.05)")
			break
		}
	}

	if n := len(sharedPathways); n >= 1 {
		score += math.Min(float64(n)*0.02, 0.08)
	}

	return score, fragments
}

// determineConfidence bands the composite score, with an override so strong
// multi-gene evidence is never classified low.
func (s *Scorer) determineConfidence(score float64, numGenes, numPathways int) domain.ConfidenceLevel {
	if score >= 0.4 {
		return domain.HIGH
	}
	if score >= 0.15 {
		return domain.MEDIUM
	}
	if (numGenes >= 3 && numPathways >= 1) || numGenes >= 5 {
		return domain.MEDIUM
	}
	return domain.LOW
}

// buildExplanations assembles the ordered annotation fragments for the
// downstream explanation generator.
func (s *Scorer) buildExplanations(c domain.CandidateScore, bonusFragments []string) []string {
	fragments := append([]string{}, bonusFragments...)

	if len(c.SharedGenes) > 0 {
		genesStr := strings.Join(head(c.SharedGenes, 5), ", ")
		if extra := len(c.SharedGenes) - 5; extra > 0 {
			genesStr += fmt.Sprintf(" (+ %d more)", extra)
		}
		fragments = append(fragments, "Targets disease genes: "+genesStr)
	}

	if len(c.SharedPathways) > 0 {
		pathwaysStr := strings.Join(head(c.SharedPathways, 3), ", ")
		if extra := len(c.SharedPathways) - 3; extra > 0 {
			pathwaysStr += fmt.Sprintf(" (+ %d more)", extra)
		}
		fragments = append(fragments, "Modulates pathways: "+pathwaysStr)
	}

	fragments = append(fragments,
		fmt.Sprintf("Gene score: %.2f", c.SubScores.Gene),
		fmt.Sprintf("Pathway score: %.2f", c.SubScores.Pathway),
	)

	if c.SubScores.Mechanism > 0 {
		fragments = append(fragments, fmt.Sprintf("Mechanism alignment: %.2f", c.SubScores.Mechanism))
	}
	if c.SubScores.Literature > 0 {
		fragments = append(fragments, fmt.Sprintf("Literature evidence: %.2f", c.SubScores.Literature))
	}

	return fragments
}

// intersect returns the sorted intersection of two string slices
func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, v := range b {
		if set[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
