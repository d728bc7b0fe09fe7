package external

import (
	"context"

	"github.com/drug-repurposing-server/internal/domain"
)

// DataProvider is the evidence-fetching contract consumed by the analysis
// pipeline
type DataProvider interface {
	// FetchDisease resolves a disease name to its evidence bundle.
	// Returns domain.ErrDiseaseNotFound when no source can resolve it.
	FetchDisease(ctx context.Context, diseaseName string) (*domain.DiseaseRecord, error)

	// FetchDrugCatalog returns up to limit approved drug records with
	// targets and pathways populated where available.
	FetchDrugCatalog(ctx context.Context, limit int) ([]domain.DrugRecord, error)
}

// SafetyDataProvider supplies FDA label and adverse event data to the
// safety filter
type SafetyDataProvider interface {
	FetchDrugLabel(ctx context.Context, drugName string) (*DrugLabel, error)
	CountSeriousEvents(ctx context.Context, drugName string, diseaseKeywords []string) (*AdverseEventSummary, error)
}
