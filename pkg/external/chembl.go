package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/drug-repurposing-server/internal/domain"
)

// ChEMBLClient fetches approved drug records from the ChEMBL REST API
type ChEMBLClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewChEMBLClient creates a new ChEMBL API client
func NewChEMBLClient(config domain.APIClientConfig) *ChEMBLClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &ChEMBLClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// chemblPageSize is the per-request page size; ChEMBL rejects larger pages
const chemblPageSize = 100

type chemblMoleculeResponse struct {
	// max_phase is part of the payload but only ever queried as a filter,
	// and ChEMBL serves it inconsistently typed, so it is not decoded.
	Molecules []struct {
		MoleculeChemblID string `json:"molecule_chembl_id"`
		PrefName         string `json:"pref_name"`
		Indication       string `json:"indication_class"`
	} `json:"molecules"`
	PageMeta struct {
		Next string `json:"next"`
	} `json:"page_meta"`
}

// FetchApprovedDrugs pulls up to limit approved (max phase 4) small
// molecules. Targets and pathways are left empty; the catalog is enriched
// by the DGIdb client afterwards.
func (c *ChEMBLClient) FetchApprovedDrugs(ctx context.Context, limit int) ([]domain.DrugRecord, error) {
	drugs := make([]domain.DrugRecord, 0, limit)
	offset := 0

	for len(drugs) < limit {
		pageSize := chemblPageSize
		if remaining := limit - len(drugs); remaining < pageSize {
			pageSize = remaining
		}

		page, hasMore, err := c.fetchPage(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		drugs = append(drugs, page...)

		if !hasMore || len(page) == 0 {
			break
		}
		offset += len(page)
	}

	return drugs, nil
}

func (c *ChEMBLClient) fetchPage(ctx context.Context, pageSize, offset int) ([]domain.DrugRecord, bool, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, false, err
	}

	params := url.Values{
		"max_phase": {"4"},
		"format":    {"json"},
		"limit":     {strconv.Itoa(pageSize)},
		"offset":    {strconv.Itoa(offset)},
	}
	fullURL := fmt.Sprintf("%s/molecule.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create ChEMBL request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute ChEMBL request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("ChEMBL returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ChEMBL response: %w", err)
	}

	var parsed chemblMoleculeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("failed to parse ChEMBL response: %w", err)
	}

	drugs := make([]domain.DrugRecord, 0, len(parsed.Molecules))
	for _, m := range parsed.Molecules {
		// Unnamed research compounds are useless for repurposing output.
		if m.PrefName == "" {
			continue
		}
		drugs = append(drugs, domain.DrugRecord{
			Name:       m.PrefName,
			ID:         m.MoleculeChemblID,
			Indication: m.Indication,
			Approved:   true,
		})
	}

	return drugs, parsed.PageMeta.Next != "", nil
}
