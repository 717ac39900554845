package amora

import (
	"context"
	"net/http"
)

// ============================================================================
// Partners
// ============================================================================

// PartnersClient handles partner discovery.
type PartnersClient struct {
	client *Client
}

// Search runs a filtered partner search and returns the matched profile, or
// nil when no candidate fits the filters. Each search consumes one of the
// account's remaining searches.
func (pc *PartnersClient) Search(ctx context.Context, filters *SearchFilters) (*PartnerProfile, error) {
	data, err := pc.client.doRequest(ctx, http.MethodGet, "/partners/search", nil, filters.query())
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[partnerSearchEnvelope](data)
	if err != nil {
		return nil, err
	}
	return env.Profile, nil
}

// Interests returns the interest catalog that feeds the search filters.
func (pc *PartnersClient) Interests(ctx context.Context) ([]string, error) {
	data, err := pc.client.doRequest(ctx, http.MethodGet, "/interests", nil, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[interestsEnvelope](data)
	if err != nil {
		return nil, err
	}
	return env.Interests, nil
}
