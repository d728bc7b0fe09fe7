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
)

// ClinicalTrialsClient queries ClinicalTrials.gov for active trial counts
type ClinicalTrialsClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewClinicalTrialsClient creates a new ClinicalTrials.gov API client
func NewClinicalTrialsClient(config domain.APIClientConfig) *ClinicalTrialsClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 2
	}
	return &ClinicalTrialsClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type trialsCountResponse struct {
	TotalCount int `json:"totalCount"`
}

// ActiveTrialsCount returns the number of recruiting studies for a disease
func (c *ClinicalTrialsClient) ActiveTrialsCount(ctx context.Context, diseaseName string) (int, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return 0, err
	}

	params := url.Values{
		"query.cond":           {diseaseName},
		"filter.overallStatus": {"RECRUITING"},
		"countTotal":           {"true"},
		"pageSize":             {"1"},
	}
	fullURL := fmt.Sprintf("%s/studies?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create trials request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute trials request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ClinicalTrials.gov returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read trials response: %w", err)
	}

	var parsed trialsCountResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse trials response: %w", err)
	}

	return parsed.TotalCount, nil
}
