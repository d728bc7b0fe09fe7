package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/internal/pathway"
)

// OpenTargetsClient queries the OpenTargets Platform GraphQL API for
// disease-gene association data
type OpenTargetsClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewOpenTargetsClient creates a new OpenTargets API client
func NewOpenTargetsClient(config domain.APIClientConfig) *OpenTargetsClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &OpenTargetsClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// associatedTargetsPageSize limits how many gene associations are pulled per
// disease; associations arrive ranked, so the head carries the signal.
const associatedTargetsPageSize = 50

// minUsefulGenes is the sparseness threshold below which the caller should
// fall back to curated data.
const minUsefulGenes = 3

const searchDiseaseQuery = `
query SearchDisease($query: String!) {
  search(queryString: $query, entityNames: ["disease"], page: {index: 0, size: 1}) {
    hits {
      id
      name
      entity
    }
  }
}`

const diseaseTargetsQuery = `
query DiseaseTargets($efoId: String!) {
  disease(efoId: $efoId) {
    name
    description
    associatedTargets(page: {index: 0, size: 50}) {
      rows {
        target {
          approvedSymbol
          approvedName
          biotype
        }
        score
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type searchResponse struct {
	Data struct {
		Search struct {
			Hits []struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Entity string `json:"entity"`
			} `json:"hits"`
		} `json:"search"`
	} `json:"data"`
}

type diseaseTargetsResponse struct {
	Data struct {
		Disease *struct {
			Name              string `json:"name"`
			Description       string `json:"description"`
			AssociatedTargets struct {
				Rows []struct {
					Target struct {
						ApprovedSymbol string `json:"approvedSymbol"`
						ApprovedName   string `json:"approvedName"`
						Biotype        string `json:"biotype"`
					} `json:"target"`
					Score float64 `json:"score"`
				} `json:"rows"`
			} `json:"associatedTargets"`
		} `json:"disease"`
	} `json:"data"`
}

// FetchDisease resolves a disease name to its gene associations. Returns
// domain.ErrDiseaseNotFound when the search yields no hit; a resolved
// disease with fewer than minUsefulGenes genes is returned as-is, and the
// caller decides whether to fall back to curated data.
func (c *OpenTargetsClient) FetchDisease(ctx context.Context, diseaseName string) (*domain.DiseaseRecord, error) {
	hit, err := c.searchDisease(ctx, diseaseName)
	if err != nil {
		return nil, err
	}

	record, err := c.fetchTargets(ctx, hit.id, hit.name)
	if err != nil {
		return nil, err
	}

	// Derive pathways from the gene set since OpenTargets does not return
	// pathway annotations in this query.
	record.Pathways = pathway.PathwaysFor(record.Genes)
	record.Source = "OpenTargets"
	return record, nil
}

type diseaseHit struct {
	id   string
	name string
}

func (c *OpenTargetsClient) searchDisease(ctx context.Context, diseaseName string) (*diseaseHit, error) {
	var resp searchResponse
	err := c.execute(ctx, graphqlRequest{
		Query:     searchDiseaseQuery,
		Variables: map[string]interface{}{"query": diseaseName},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search disease in OpenTargets: %w", err)
	}

	hits := resp.Data.Search.Hits
	if len(hits) == 0 {
		return nil, domain.ErrDiseaseNotFound
	}

	return &diseaseHit{id: hits[0].ID, name: hits[0].Name}, nil
}

func (c *OpenTargetsClient) fetchTargets(ctx context.Context, efoID, foundName string) (*domain.DiseaseRecord, error) {
	var resp diseaseTargetsResponse
	err := c.execute(ctx, graphqlRequest{
		Query:     diseaseTargetsQuery,
		Variables: map[string]interface{}{"efoId": efoID},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch disease targets from OpenTargets: %w", err)
	}

	disease := resp.Data.Disease
	if disease == nil {
		return nil, domain.ErrDiseaseNotFound
	}

	rows := disease.AssociatedTargets.Rows
	genes := make([]string, 0, len(rows))
	geneScores := make(map[string]float64, len(rows))
	for _, row := range rows {
		genes = append(genes, row.Target.ApprovedSymbol)
		geneScores[row.Target.ApprovedSymbol] = row.Score
	}

	return &domain.DiseaseRecord{
		Name:        foundName,
		ID:          efoID,
		Description: disease.Description,
		Genes:       genes,
		GeneScores:  geneScores,
	}, nil
}

// execute posts one GraphQL request and decodes the response
func (c *OpenTargetsClient) execute(ctx context.Context, reqBody graphqlRequest, out interface{}) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenTargets returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SparseResult reports whether a fetched record is too thin to be useful
// on its own.
func SparseResult(record *domain.DiseaseRecord) bool {
	return record == nil || len(record.Genes) < minUsefulGenes
}
