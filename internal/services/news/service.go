// Package news fetches, deduplicates and orders market headline entries.
package news

import (
	"context"
	"sort"
	"strings"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

// DefaultMaxItems caps the headline count per cycle
const DefaultMaxItems = 10

// Service implements NewsService
type Service struct {
	client           interfaces.NewsClient
	queries          []string
	maxItems         int
	priorityKeywords []string
	logger           *common.Logger
}

// NewService creates a new news service. maxItems <= 0 falls back to the
// default cap.
func NewService(client interfaces.NewsClient, cfg common.NewsConfig, logger *common.Logger) *Service {
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	return &Service{
		client:           client,
		queries:          cfg.Queries,
		maxItems:         maxItems,
		priorityKeywords: cfg.PriorityKeywords,
		logger:           logger,
	}
}

// FetchNews runs every configured query, merges results, deduplicates by
// exact title, applies priority-keyword ordering and caps the count.
// An error is returned only when no query produced results and at least one
// failed; callers treat that as "proceed with no news".
func (s *Service) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	var merged []models.NewsItem
	var lastErr error

	for _, query := range s.queries {
		items, err := s.client.Search(ctx, query, s.maxItems)
		if err != nil {
			s.logger.Warn().Err(err).Str("query", query).Msg("News query failed")
			lastErr = err
			continue
		}
		merged = append(merged, items...)
	}

	if len(merged) == 0 && lastErr != nil {
		return nil, lastErr
	}

	deduped := dedupeByTitle(merged)
	ordered := orderByPriority(deduped, s.priorityKeywords)

	if len(ordered) > s.maxItems {
		ordered = ordered[:s.maxItems]
	}

	s.logger.Info().Int("items", len(ordered)).Msg("News fetched")

	return ordered, nil
}

// dedupeByTitle removes entries whose exact title was already seen,
// keeping the first occurrence.
func dedupeByTitle(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]struct{}, len(items))
	result := make([]models.NewsItem, 0, len(items))

	for _, item := range items {
		if _, ok := seen[item.Title]; ok {
			continue
		}
		seen[item.Title] = struct{}{}
		result = append(result, item)
	}

	return result
}

// orderByPriority moves entries whose title or source contains any of the
// keywords ahead of the rest. The match is an ordering tiebreak, not a
// filter: order within each group is preserved.
func orderByPriority(items []models.NewsItem, keywords []string) []models.NewsItem {
	if len(keywords) == 0 {
		return items
	}

	matches := func(item models.NewsItem) bool {
		title := strings.ToLower(item.Title)
		source := strings.ToLower(item.Source)
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(title, kw) || strings.Contains(source, kw) {
				return true
			}
		}
		return false
	}

	result := make([]models.NewsItem, len(items))
	copy(result, items)
	sort.SliceStable(result, func(i, j int) bool {
		return matches(result[i]) && !matches(result[j])
	})

	return result
}

// Ensure Service implements NewsService
var _ interfaces.NewsService = (*Service)(nil)
