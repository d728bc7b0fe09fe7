package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/pkg/external"
)

type mockSafetyProvider struct {
	mock.Mock
}

func (m *mockSafetyProvider) FetchDrugLabel(ctx context.Context, drugName string) (*external.DrugLabel, error) {
	args := m.Called(ctx, drugName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.DrugLabel), args.Error(1)
}

func (m *mockSafetyProvider) CountSeriousEvents(ctx context.Context, drugName string, diseaseKeywords []string) (*external.AdverseEventSummary, error) {
	args := m.Called(ctx, drugName, diseaseKeywords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.AdverseEventSummary), args.Error(1)
}

func newTestSafetyLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func candidate(name string) domain.CandidateScore {
	return domain.CandidateScore{DrugName: name, CompositeScore: 0.5}
}

func TestSafetyFilter_WithdrawnDrug(t *testing.T) {
	filter := NewSafetyFilter(nil, newTestSafetyLogger())

	safe, warnings, err := filter.Filter(context.Background(),
		[]domain.CandidateScore{candidate("Rofecoxib"), candidate("Metformin")},
		"Type 2 Diabetes")
	require.NoError(t, err)

	require.Len(t, safe, 1)
	assert.Equal(t, "Metformin", safe[0].DrugName)

	require.Len(t, warnings, 1)
	assert.Equal(t, "Rofecoxib", warnings[0].DrugName)
	assert.Equal(t, SeverityAbsolute, warnings[0].Severity)
	assert.Equal(t, SourceMarketWithdrawal, warnings[0].Source)
}

func TestSafetyFilter_CriticalRule(t *testing.T) {
	filter := NewSafetyFilter(nil, newTestSafetyLogger())

	tests := []struct {
		name     string
		drug     string
		disease  string
		filtered bool
	}{
		{"antipsychotic for diabetes", "Olanzapine", "Type 2 Diabetes", true},
		{"beta-blocker for asthma", "Propranolol", "Asthma", true},
		{"dopamine antagonist for parkinson", "Haloperidol", "Parkinson's Disease", true},
		{"same drug, unrelated disease", "Propranolol", "Hypertension", false},
		{"safe drug", "Metformin", "Type 2 Diabetes", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, warnings, err := filter.Filter(context.Background(),
				[]domain.CandidateScore{candidate(tt.drug)}, tt.disease)
			require.NoError(t, err)

			if tt.filtered {
				assert.Empty(t, safe)
				require.Len(t, warnings, 1)
				assert.Equal(t, SourceCriticalRule, warnings[0].Source)
			} else {
				assert.Len(t, safe, 1)
				assert.Empty(t, warnings)
			}
		})
	}
}

func TestSafetyFilter_FDALabelContraindication(t *testing.T) {
	provider := new(mockSafetyProvider)
	provider.On("FetchDrugLabel", mock.Anything, "diphenhydramine").Return(&external.DrugLabel{
		Contraindications: []string{"Use with caution in patients with dementia or cognitive impairment."},
	}, nil)

	filter := NewSafetyFilter(provider, newTestSafetyLogger())

	safe, warnings, err := filter.Filter(context.Background(),
		[]domain.CandidateScore{candidate("Diphenhydramine")}, "Alzheimer's Disease")
	require.NoError(t, err)

	assert.Empty(t, safe)
	require.Len(t, warnings, 1)
	assert.Equal(t, SeverityAbsolute, warnings[0].Severity)
	assert.Equal(t, SourceFDALabel, warnings[0].Source)
	assert.Contains(t, warnings[0].Reason, "contraindications")
	provider.AssertExpectations(t)
}

func TestSafetyFilter_AdverseEventWarningKeepsCandidate(t *testing.T) {
	provider := new(mockSafetyProvider)
	provider.On("FetchDrugLabel", mock.Anything, "somedrug").Return((*external.DrugLabel)(nil), nil)
	provider.On("CountSeriousEvents", mock.Anything, "somedrug", mock.Anything).Return(&external.AdverseEventSummary{
		SeriousEventCount: 250,
		TopReactions: []external.ReactionCount{
			{Reaction: "tremor", Count: 120},
			{Reaction: "rigidity", Count: 80},
		},
	}, nil)

	filter := NewSafetyFilter(provider, newTestSafetyLogger())

	safe, warnings, err := filter.Filter(context.Background(),
		[]domain.CandidateScore{candidate("Somedrug")}, "Parkinson's Disease")
	require.NoError(t, err)

	// Relative findings annotate without removing
	require.Len(t, safe, 1)
	require.Len(t, warnings, 1)
	assert.Equal(t, SeverityRelative, warnings[0].Severity)
	assert.Equal(t, SourceAdverseEvents, warnings[0].Source)
	assert.Contains(t, warnings[0].Reason, "250 serious adverse event reports")
	assert.Contains(t, safe[0].ExplanationFragments, warnings[0].Reason)
}

func TestSafetyFilter_ProviderFailureDegrades(t *testing.T) {
	provider := new(mockSafetyProvider)
	provider.On("FetchDrugLabel", mock.Anything, mock.Anything).Return((*external.DrugLabel)(nil), assert.AnError)
	provider.On("CountSeriousEvents", mock.Anything, mock.Anything, mock.Anything).Return((*external.AdverseEventSummary)(nil), assert.AnError)

	filter := NewSafetyFilter(provider, newTestSafetyLogger())

	safe, warnings, err := filter.Filter(context.Background(),
		[]domain.CandidateScore{candidate("Metformin")}, "Type 2 Diabetes")
	require.NoError(t, err)

	assert.Len(t, safe, 1)
	assert.Empty(t, warnings)
}

func TestNormalizeDiseaseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Parkinson's Disease", "parkinson"},
		{"Diabetes Mellitus Type 2", "diabetes"},
		{"High Blood Pressure", "hypertension"},
		{"Chronic Obstructive Pulmonary Disease", "copd"},
		{"Major Depressive Disorder", "depression"},
		{"Gaucher Disease", "gaucher_disease"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeDiseaseName(tt.input), tt.input)
	}
}
