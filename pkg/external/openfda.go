package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/drug-repurposing-server/internal/domain"
)

// OpenFDAClient queries FDA drug labels and the FAERS adverse event
// database for safety screening
type OpenFDAClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewOpenFDAClient creates a new OpenFDA API client
func NewOpenFDAClient(config domain.APIClientConfig) *OpenFDAClient {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 4
	}
	return &OpenFDAClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// DrugLabel holds the safety-relevant sections of an FDA drug label
type DrugLabel struct {
	Contraindications   []string `json:"contraindications"`
	Warnings            []string `json:"warnings"`
	BoxedWarning        []string `json:"boxed_warning"`
	WarningsAndCautions []string `json:"warnings_and_cautions"`
	Precautions         []string `json:"precautions"`
	AdverseReactions    []string `json:"adverse_reactions"`
}

// Sections returns the label's named safety sections in checking order
func (l *DrugLabel) Sections() map[string][]string {
	return map[string][]string{
		"contraindications":     l.Contraindications,
		"boxed_warning":         l.BoxedWarning,
		"warnings":              l.Warnings,
		"warnings_and_cautions": l.WarningsAndCautions,
		"precautions":           l.Precautions,
	}
}

// ReactionCount is one adverse reaction term with its report count
type ReactionCount struct {
	Reaction string `json:"reaction"`
	Count    int    `json:"count"`
}

// AdverseEventSummary aggregates serious event reports for a drug-disease pair
type AdverseEventSummary struct {
	SeriousEventCount int             `json:"serious_event_count"`
	TopReactions      []ReactionCount `json:"top_reactions"`
}

type labelSearchResponse struct {
	Results []struct {
		Contraindications   []string `json:"contraindications"`
		Warnings            []string `json:"warnings"`
		BoxedWarning        []string `json:"boxed_warning"`
		WarningsAndCautions []string `json:"warnings_and_cautions"`
		Precautions         []string `json:"precautions"`
		AdverseReactions    []string `json:"adverse_reactions"`
	} `json:"results"`
}

type eventCountResponse struct {
	Results []struct {
		Term  string `json:"term"`
		Count int    `json:"count"`
	} `json:"results"`
}

// FetchLabel fetches the FDA label for a drug by generic name. A drug with
// no label on file yields (nil, nil).
func (c *OpenFDAClient) FetchLabel(ctx context.Context, drugName string) (*DrugLabel, error) {
	params := url.Values{
		"search": {fmt.Sprintf(`openfda.generic_name:"%s"`, strings.ToLower(drugName))},
		"limit":  {"1"},
	}

	body, err := c.get(ctx, "/drug/label.json", params)
	if err != nil {
		return nil, err
	}

	var parsed labelSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}

	if len(parsed.Results) == 0 {
		return nil, nil
	}

	r := parsed.Results[0]
	return &DrugLabel{
		Contraindications:   r.Contraindications,
		Warnings:            r.Warnings,
		BoxedWarning:        r.BoxedWarning,
		WarningsAndCautions: r.WarningsAndCautions,
		Precautions:         r.Precautions,
		AdverseReactions:    r.AdverseReactions,
	}, nil
}

// CountSeriousEvents counts serious FAERS reports for the drug where the
// reported reaction matches one of the disease keywords.
func (c *OpenFDAClient) CountSeriousEvents(ctx context.Context, drugName string, diseaseKeywords []string) (*AdverseEventSummary, error) {
	if len(diseaseKeywords) > 3 {
		diseaseKeywords = diseaseKeywords[:3]
	}

	terms := make([]string, 0, len(diseaseKeywords))
	for _, keyword := range diseaseKeywords {
		terms = append(terms, fmt.Sprintf(`patient.reaction.reactionmeddrapt:"%s"`, keyword))
	}

	params := url.Values{
		"search": {fmt.Sprintf(`patient.drug.medicinalproduct:"%s" AND serious:1 AND (%s)`,
			strings.ToLower(drugName), strings.Join(terms, " OR "))},
		"count": {"patient.reaction.reactionmeddrapt.exact"},
		"limit": {"10"},
	}

	body, err := c.get(ctx, "/drug/event.json", params)
	if err != nil {
		return nil, err
	}

	var parsed eventCountResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse event response: %w", err)
	}

	summary := &AdverseEventSummary{}
	for i, r := range parsed.Results {
		summary.SeriousEventCount += r.Count
		if i < 5 {
			summary.TopReactions = append(summary.TopReactions, ReactionCount{
				Reaction: r.Term,
				Count:    r.Count,
			})
		}
	}

	return summary, nil
}

func (c *OpenFDAClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenFDA request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute OpenFDA request: %w", err)
	}
	defer resp.Body.Close()

	// OpenFDA returns 404 for empty result sets rather than an empty list.
	if resp.StatusCode == http.StatusNotFound {
		return []byte(`{"results":[]}`), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenFDA returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenFDA response: %w", err)
	}
	return body, nil
}
