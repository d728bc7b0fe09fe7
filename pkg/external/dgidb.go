package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/internal/pathway"
)

// DGIdbClient queries the Drug Gene Interaction Database for drug target
// gene symbols
type DGIdbClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewDGIdbClient creates a new DGIdb API client
func NewDGIdbClient(config domain.APIClientConfig) *DGIdbClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &DGIdbClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type dgidbInteractionsResponse struct {
	MatchedTerms []struct {
		SearchTerm   string `json:"searchTerm"`
		Interactions []struct {
			GeneName        string   `json:"geneName"`
			InteractionType string   `json:"interactionTypes"`
			Sources         []string `json:"sources"`
		} `json:"interactions"`
	} `json:"matchedTerms"`
}

// FetchTargets returns the interaction gene symbols for one drug name.
// An unmatched drug yields an empty slice, not an error.
func (c *DGIdbClient) FetchTargets(ctx context.Context, drugName string) ([]string, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{"drugs": {drugName}}
	fullURL := fmt.Sprintf("%s/interactions.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create DGIdb request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute DGIdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DGIdb returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read DGIdb response: %w", err)
	}

	var parsed dgidbInteractionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse DGIdb response: %w", err)
	}

	seen := make(map[string]bool)
	var genes []string
	for _, term := range parsed.MatchedTerms {
		for _, interaction := range term.Interactions {
			if interaction.GeneName == "" || seen[interaction.GeneName] {
				continue
			}
			seen[interaction.GeneName] = true
			genes = append(genes, interaction.GeneName)
		}
	}

	return genes, nil
}

// EnhanceDrugTargets fills in targets for catalog entries missing them and
// derives pathways from the resulting gene set. Per-drug lookup failures
// leave that drug unenhanced rather than failing the whole catalog.
func (c *DGIdbClient) EnhanceDrugTargets(ctx context.Context, drugs []domain.DrugRecord) ([]domain.DrugRecord, error) {
	for i := range drugs {
		if len(drugs[i].Targets) > 0 {
			continue
		}

		targets, err := c.FetchTargets(ctx, drugs[i].Name)
		if err != nil {
			if ctx.Err() != nil {
				return drugs, ctx.Err()
			}
			continue
		}

		drugs[i].Targets = targets
		if len(drugs[i].Pathways) == 0 && len(targets) > 0 {
			drugs[i].Pathways = pathway.PathwaysFor(targets)
		}
	}
	return drugs, nil
}
