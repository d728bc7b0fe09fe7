package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-repurposing-server/internal/domain"
)

func clientConfig(serverURL string) domain.APIClientConfig {
	return domain.APIClientConfig{
		BaseURL:   serverURL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}
}

func TestOpenTargetsClient_FetchDisease(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")

		if requestCount == 1 {
			// First request is the disease search
			fmt.Fprint(w, `{"data":{"search":{"hits":[{"id":"EFO_0002508","name":"Parkinson disease","entity":"disease"}]}}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"disease":{
			"name":"Parkinson disease",
			"description":"A progressive neurodegenerative disorder",
			"associatedTargets":{"rows":[
				{"target":{"approvedSymbol":"SNCA","approvedName":"synuclein alpha","biotype":"protein_coding"},"score":0.91},
				{"target":{"approvedSymbol":"LRRK2","approvedName":"leucine rich repeat kinase 2","biotype":"protein_coding"},"score":0.85},
				{"target":{"approvedSymbol":"GBA","approvedName":"glucosylceramidase beta","biotype":"protein_coding"},"score":0.72}
			]}
		}}}`)
	}))
	defer server.Close()

	client := NewOpenTargetsClient(clientConfig(server.URL))
	record, err := client.FetchDisease(context.Background(), "parkinson")
	require.NoError(t, err)

	assert.Equal(t, "Parkinson disease", record.Name)
	assert.Equal(t, "EFO_0002508", record.ID)
	assert.Equal(t, []string{"SNCA", "LRRK2", "GBA"}, record.Genes)
	assert.Equal(t, 0.91, record.GeneScores["SNCA"])
	assert.Equal(t, "OpenTargets", record.Source)
	// Pathways derived from the gene set
	assert.Contains(t, record.Pathways, "Alpha-synuclein aggregation")
	assert.Contains(t, record.Pathways, "Lysosomal function")
}

func TestOpenTargetsClient_DiseaseNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"search":{"hits":[]}}}`)
	}))
	defer server.Close()

	client := NewOpenTargetsClient(clientConfig(server.URL))
	_, err := client.FetchDisease(context.Background(), "no such disease")
	assert.ErrorIs(t, err, domain.ErrDiseaseNotFound)
}

func TestChEMBLClient_FetchApprovedDrugs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", r.URL.Query().Get("max_phase"))
		// max_phase is served string-typed or number-typed depending on
		// the endpoint version; the decode must tolerate both.
		fmt.Fprint(w, `{"molecules":[
			{"molecule_chembl_id":"CHEMBL1431","pref_name":"METFORMIN","max_phase":4,"indication_class":"Antidiabetic"},
			{"molecule_chembl_id":"CHEMBL941","pref_name":"IMATINIB","max_phase":"4","indication_class":"Antineoplastic"},
			{"molecule_chembl_id":"CHEMBL000","pref_name":"","max_phase":"4","indication_class":""}
		],"page_meta":{"next":""}}`)
	}))
	defer server.Close()

	client := NewChEMBLClient(clientConfig(server.URL))
	drugs, err := client.FetchApprovedDrugs(context.Background(), 10)
	require.NoError(t, err)

	// Unnamed molecules are dropped
	require.Len(t, drugs, 2)
	assert.Equal(t, "METFORMIN", drugs[0].Name)
	assert.Equal(t, "CHEMBL1431", drugs[0].ID)
	assert.True(t, drugs[0].Approved)
	assert.Empty(t, drugs[0].Targets)
}

func TestDGIdbClient_EnhanceDrugTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"matchedTerms":[{"searchTerm":"METFORMIN","interactions":[
			{"geneName":"PRKAA1","interactionTypes":"activator","sources":["DrugBank"]},
			{"geneName":"MTOR","interactionTypes":"inhibitor","sources":["DrugBank"]},
			{"geneName":"PRKAA1","interactionTypes":"activator","sources":["TTD"]}
		]}]}`)
	}))
	defer server.Close()

	client := NewDGIdbClient(clientConfig(server.URL))
	drugs := []domain.DrugRecord{{Name: "METFORMIN"}}

	enhanced, err := client.EnhanceDrugTargets(context.Background(), drugs)
	require.NoError(t, err)

	// Duplicate gene names are collapsed
	assert.Equal(t, []string{"PRKAA1", "MTOR"}, enhanced[0].Targets)
	assert.Contains(t, enhanced[0].Pathways, "mTOR signaling")
}

func TestClinicalTrialsClient_ActiveTrialsCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "RECRUITING", r.URL.Query().Get("filter.overallStatus"))
		fmt.Fprint(w, `{"totalCount":42}`)
	}))
	defer server.Close()

	client := NewClinicalTrialsClient(clientConfig(server.URL))
	count, err := client.ActiveTrialsCount(context.Background(), "Parkinson Disease")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestOpenFDAClient_FetchLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{
			"contraindications":["Known hypersensitivity. Patients with parkinsonian syndromes."],
			"boxed_warning":["Serious risk of bronchospasm in asthma patients."]
		}]}`)
	}))
	defer server.Close()

	client := NewOpenFDAClient(clientConfig(server.URL))
	label, err := client.FetchLabel(context.Background(), "Haloperidol")
	require.NoError(t, err)
	require.NotNil(t, label)

	assert.Len(t, label.Contraindications, 1)
	assert.Len(t, label.BoxedWarning, 1)
}

func TestOpenFDAClient_NoLabelOnFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// OpenFDA signals an empty result set with 404
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOpenFDAClient(clientConfig(server.URL))
	label, err := client.FetchLabel(context.Background(), "obscuredrug")
	require.NoError(t, err)
	assert.Nil(t, label)
}

func TestCuratedDisease(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedName string
		expectRare   bool
		found        bool
	}{
		{"direct key", "parkinson", "Parkinson's Disease", false, true},
		{"fuzzy match", "Parkinson's Disease", "Parkinson's Disease", false, true},
		{"rare disease flag", "huntington disease", "Huntington's Disease", true, true},
		{"ambiguous query resolves to first key in order", "cancer", "Breast Cancer", false, true},
		{"unknown disease", "fictionitis", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := CuratedDisease(tt.query)
			if !tt.found {
				assert.Nil(t, record)
				return
			}
			require.NotNil(t, record)
			assert.Equal(t, tt.expectedName, record.Name)
			assert.Equal(t, tt.expectRare, record.IsRare)
			assert.Equal(t, "Curated", record.Source)
			assert.NotEmpty(t, record.Genes)
			for _, g := range record.Genes {
				assert.Equal(t, curatedGeneScore, record.GeneScores[g])
			}
		})
	}
}

func TestIsRareDisease(t *testing.T) {
	assert.True(t, IsRareDisease("Gaucher Disease", ""))
	assert.True(t, IsRareDisease("Some Syndrome", "a rare lysosomal storage disorder"))
	assert.False(t, IsRareDisease("Hypertension", "elevated blood pressure"))
}

func TestSparseResult(t *testing.T) {
	assert.True(t, SparseResult(nil))
	assert.True(t, SparseResult(&domain.DiseaseRecord{Genes: []string{"G1", "G2"}}))
	assert.False(t, SparseResult(&domain.DiseaseRecord{Genes: []string{"G1", "G2", "G3"}}))
}

func TestCuratedDrugCatalog(t *testing.T) {
	catalog := CuratedDrugCatalog()
	require.Len(t, catalog, 20)

	for _, drug := range catalog {
		assert.NotEmpty(t, drug.Name)
		assert.NotEmpty(t, drug.ID)
		assert.True(t, drug.Approved)
		assert.NotEmpty(t, drug.Targets, drug.Name)
		assert.NotEmpty(t, drug.Pathways, drug.Name)
	}
}
