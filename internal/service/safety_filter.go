package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/pkg/external"
)

// Contraindication severities and evidence sources attached to warnings.
const (
	SeverityAbsolute = "absolute"
	SeverityRelative = "relative"

	SourceMarketWithdrawal = "market_withdrawal"
	SourceCriticalRule     = "critical_rule"
	SourceFDALabel         = "fda_label"
	SourceAdverseEvents    = "adverse_events"
)

// seriousEventThreshold is the FAERS serious-report count above which a
// candidate gets flagged.
const seriousEventThreshold = 100

// withdrawnDrugs are removed unconditionally, regardless of disease.
var withdrawnDrugs = map[string]bool{
	"troglitazone": true,
	"rofecoxib":    true,
	"cerivastatin": true,
	"fenfluramine": true,
	"terfenadine":  true,
	"valdecoxib":   true,
	"pemoline":     true,
	"propoxyphene": true,
}

// diseaseKeywords maps a normalized disease key to the terms scanned for in
// FDA label sections and FAERS reaction reports.
var diseaseKeywords = map[string][]string{
	"diabetes": {
		"diabetes", "diabetic", "hyperglycemia", "glucose", "insulin resistance",
		"blood sugar", "glycemic control", "diabetic patients",
	},
	"parkinson": {
		"parkinson", "parkinsonian", "dopamine", "extrapyramidal",
		"movement disorder", "tremor", "rigidity",
	},
	"alzheimer": {
		"alzheimer", "dementia", "cognitive", "memory", "cholinergic",
		"anticholinergic", "acetylcholine",
	},
	"asthma": {
		"asthma", "bronchospasm", "broncho", "airway", "respiratory",
		"breathing", "wheezing", "beta-blocker",
	},
	"epilepsy": {
		"epilepsy", "seizure", "convulsion", "seizure threshold",
	},
	"hypertension": {
		"hypertension", "blood pressure", "hypertensive", "elevated blood pressure",
	},
	"heart_failure": {
		"heart failure", "cardiac failure", "congestive", "cardiomyopathy",
		"ventricular dysfunction",
	},
	"copd": {
		"copd", "chronic obstructive", "emphysema", "chronic bronchitis",
		"respiratory", "bronchospasm",
	},
	"glaucoma": {
		"glaucoma", "intraocular pressure", "narrow-angle", "angle-closure",
	},
	"osteoporosis": {
		"osteoporosis", "bone", "fracture", "bone density", "bone loss",
	},
	"crohn": {
		"crohn", "inflammatory bowel", "ibd", "intestinal inflammation",
	},
	"rheumatoid_arthritis": {
		"infection", "tuberculosis", "immunosuppression", "live vaccine",
	},
	"depression": {
		"depression", "suicidal", "mood", "psychiatric",
	},
}

type criticalRule struct {
	drugs  map[string]bool
	reason string
}

// criticalContraindications are curated drug/disease pairings that remain
// blocked even when the FDA label lookup fails.
var criticalContraindications = map[string]criticalRule{
	"diabetes": {
		drugs:  map[string]bool{"olanzapine": true, "clozapine": true, "quetiapine": true, "risperidone": true},
		reason: "Atypical antipsychotics cause metabolic syndrome and diabetes",
	},
	"asthma": {
		drugs:  map[string]bool{"propranolol": true, "atenolol": true, "metoprolol": true, "nadolol": true, "timolol": true},
		reason: "Beta-blockers cause life-threatening bronchospasm",
	},
	"parkinson": {
		drugs:  map[string]bool{"perphenazine": true, "haloperidol": true, "olanzapine": true, "metoclopramide": true},
		reason: "Dopamine antagonists worsen Parkinson's symptoms",
	},
}

// diseaseNameMappings resolves common disease name variants to keyword keys.
// Checked by substring, in this order.
var diseaseNameMappings = []struct {
	match string
	key   string
}{
	{"parkinson", "parkinson"},
	{"alzheimer", "alzheimer"},
	{"diabetes", "diabetes"},
	{"asthma", "asthma"},
	{"chronic obstructive pulmonary disease", "copd"},
	{"copd", "copd"},
	{"epilepsy", "epilepsy"},
	{"seizure", "epilepsy"},
	{"high blood pressure", "hypertension"},
	{"hypertension", "hypertension"},
	{"heart failure", "heart_failure"},
	{"glaucoma", "glaucoma"},
	{"osteoporosis", "osteoporosis"},
	{"crohn", "crohn"},
	{"rheumatoid arthritis", "rheumatoid_arthritis"},
	{"major depressive disorder", "depression"},
	{"depression", "depression"},
}

// labelSectionOrder fixes the scan order over FDA label sections so the
// first-match reason is stable.
var labelSectionOrder = []string{
	"contraindications",
	"boxed_warning",
	"warnings",
	"warnings_and_cautions",
	"precautions",
}

// SafetyFilter removes or annotates scored candidates that are unsafe for
// the disease under analysis. It runs after scoring and never touches the
// composite score.
type SafetyFilter struct {
	safety          external.SafetyDataProvider
	logger          *logrus.Logger
	useAdverseEvent bool
}

// NewSafetyFilter builds a filter backed by the given label/event provider.
// A nil provider disables the FDA label and adverse-event checks; the
// withdrawn-drug and critical-rule stages still apply.
func NewSafetyFilter(safety external.SafetyDataProvider, logger *logrus.Logger) *SafetyFilter {
	return &SafetyFilter{
		safety:          safety,
		logger:          logger,
		useAdverseEvent: safety != nil,
	}
}

// Filter partitions candidates into safe and removed sets for the disease.
// Removed candidates carry a SafetyWarning explaining the contraindication;
// relative findings annotate the safe set without removing anyone.
func (f *SafetyFilter) Filter(ctx context.Context, candidates []domain.CandidateScore, diseaseName string) ([]domain.CandidateScore, []domain.SafetyWarning, error) {
	normalized := normalizeDiseaseName(diseaseName)
	keywords, ok := diseaseKeywords[normalized]
	if !ok {
		keywords = []string{strings.ToLower(diseaseName)}
	}

	f.logger.WithFields(logrus.Fields{
		"disease":    diseaseName,
		"normalized": normalized,
		"candidates": len(candidates),
	}).Info("Running safety filter")

	var safe []domain.CandidateScore
	var warnings []domain.SafetyWarning

	for _, candidate := range candidates {
		drugName := strings.ToLower(strings.TrimSpace(candidate.DrugName))

		if withdrawnDrugs[drugName] {
			warnings = append(warnings, domain.SafetyWarning{
				DrugName: candidate.DrugName,
				Severity: SeverityAbsolute,
				Reason:   "Withdrawn from market",
				Source:   SourceMarketWithdrawal,
			})
			f.logger.WithField("drug", candidate.DrugName).Info("Filtered withdrawn drug")
			continue
		}

		if rule, ok := criticalContraindications[normalized]; ok && rule.drugs[drugName] {
			warnings = append(warnings, domain.SafetyWarning{
				DrugName: candidate.DrugName,
				Severity: SeverityAbsolute,
				Reason:   rule.reason,
				Source:   SourceCriticalRule,
			})
			f.logger.WithField("drug", candidate.DrugName).Info("Filtered by critical rule")
			continue
		}

		if f.safety != nil {
			removed, warning, err := f.checkExternalData(ctx, candidate, diseaseName, keywords)
			if err != nil {
				return nil, nil, err
			}
			if warning != nil {
				warnings = append(warnings, *warning)
				if removed {
					continue
				}
				candidate.ExplanationFragments = append(candidate.ExplanationFragments, warning.Reason)
			}
		}

		safe = append(safe, candidate)
	}

	f.logger.WithFields(logrus.Fields{
		"safe":     len(safe),
		"filtered": len(candidates) - len(safe),
	}).Info("Safety filtering complete")

	return safe, warnings, nil
}

// checkExternalData applies the FDA label and adverse-event stages. The
// boolean reports whether the candidate should be removed. Provider failures
// degrade to no finding: missing safety data must not abort an analysis.
func (f *SafetyFilter) checkExternalData(ctx context.Context, candidate domain.CandidateScore, diseaseName string, keywords []string) (bool, *domain.SafetyWarning, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}

	drugName := strings.ToLower(strings.TrimSpace(candidate.DrugName))

	label, err := f.safety.FetchDrugLabel(ctx, drugName)
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"drug":  candidate.DrugName,
			"error": err.Error(),
		}).Warn("FDA label lookup failed, skipping label check")
	} else if label != nil {
		if found, reason := labelContraindication(label, keywords); found {
			return true, &domain.SafetyWarning{
				DrugName: candidate.DrugName,
				Severity: SeverityAbsolute,
				Reason:   reason,
				Source:   SourceFDALabel,
			}, nil
		}
	}

	if !f.useAdverseEvent {
		return false, nil, nil
	}

	events, err := f.safety.CountSeriousEvents(ctx, drugName, keywords)
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"drug":  candidate.DrugName,
			"error": err.Error(),
		}).Warn("Adverse event lookup failed, skipping event check")
		return false, nil, nil
	}

	if events != nil && events.SeriousEventCount >= seriousEventThreshold {
		var reactions []string
		for _, r := range events.TopReactions {
			reactions = append(reactions, r.Reaction)
			if len(reactions) == 3 {
				break
			}
		}
		reason := fmt.Sprintf("%d serious adverse event reports related to %s", events.SeriousEventCount, diseaseName)
		if len(reactions) > 0 {
			reason += ": " + strings.Join(reactions, ", ")
		}
		// Relative findings annotate the candidate but keep it ranked.
		return false, &domain.SafetyWarning{
			DrugName: candidate.DrugName,
			Severity: SeverityRelative,
			Reason:   reason,
			Source:   SourceAdverseEvents,
		}, nil
	}

	return false, nil, nil
}

// labelContraindication scans the label sections in a fixed order for any
// disease keyword and returns the surrounding context as the reason.
func labelContraindication(label *external.DrugLabel, keywords []string) (bool, string) {
	sections := label.Sections()

	for _, name := range labelSectionOrder {
		text := strings.ToLower(strings.Join(sections[name], " "))
		if text == "" {
			continue
		}
		for _, keyword := range keywords {
			idx := strings.Index(text, keyword)
			if idx < 0 {
				continue
			}
			start := idx - 100
			if start < 0 {
				start = 0
			}
			end := idx + 200
			if end > len(text) {
				end = len(text)
			}
			context := strings.TrimSpace(strings.ReplaceAll(text[start:end], "\n", " "))
			if len(context) > 200 {
				context = context[:200] + "..."
			}
			return true, fmt.Sprintf("FDA label %s mentions: %s", name, context)
		}
	}

	return false, ""
}

// normalizeDiseaseName resolves a free-form disease name to a keyword key.
func normalizeDiseaseName(diseaseName string) string {
	lower := strings.ToLower(strings.TrimSpace(diseaseName))
	for _, m := range diseaseNameMappings {
		if strings.Contains(lower, m.match) {
			return m.key
		}
	}
	return strings.ReplaceAll(lower, " ", "_")
}
