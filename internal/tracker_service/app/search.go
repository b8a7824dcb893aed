package app

import (
	"context"
	"strings"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// Search resolves a free-text query against phones and services.
//
// A phone matches when the digit-only projection of the query is a substring
// of the digit projection of its raw or normalized number, or when its raw
// number contains the literal query. A service matches when its name
// contains the query as a case-insensitive substring. All comparisons are
// literal containment; query text is never interpreted as a pattern.
//
// The combined order is deterministic for identical store state: phones
// first, then services, each in (created_at, id) order.
//
// Reserved UI query literals ("database", "images") are intercepted by the
// UI layer before reaching this resolver; here they are ordinary text.
func (a *Application) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	searchQueriesCounter.Inc()

	digits := domain.DigitsOnly(query)
	phones, err := a.phoneRepo.Search(ctx, digits, query, a.searchLimit)
	if err != nil {
		return nil, err
	}
	services, err := a.serviceRepo.SearchByName(ctx, query, a.searchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(phones)+len(services))
	for _, p := range phones {
		results = append(results, domain.SearchResult{
			Kind:        domain.SearchResultPhone,
			ID:          p.ID,
			DisplayText: p.NormalizedNumber,
		})
	}
	for _, sv := range services {
		results = append(results, domain.SearchResult{
			Kind:        domain.SearchResultService,
			ID:          sv.ID,
			DisplayText: sv.Name,
		})
	}
	return results, nil
}
