// Package search serves the equipment search box of the admin console.
package search

import (
	"context"
	"strings"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate converts a 1-based page and a page size into an offset and limit.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// Service ranks a freshly fetched equipment list against a query. With no
// Index configured, or when the index fails, it falls back to Filter.
type Service struct {
	Index Index
}

func (s *Service) Find(ctx context.Context, institutionID, query string, all []backend.Equipment) []backend.Equipment {
	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}
	if s == nil || s.Index == nil {
		return Filter(all, query)
	}

	l := logging.FromContext(ctx).With("component", "search")
	if err := s.Index.Sync(ctx, institutionID, all); err != nil {
		l.Warn("search_sync_failed", "error", err)
		return Filter(all, query)
	}
	_, ids, err := s.Index.Search(ctx, institutionID, query, 0, MaxPageSize)
	if err != nil {
		l.Warn("search_query_failed", "error", err)
		return Filter(all, query)
	}

	byID := make(map[string]backend.Equipment, len(all))
	for _, eq := range all {
		byID[eq.ID.String()] = eq
	}
	out := make([]backend.Equipment, 0, len(ids))
	for _, id := range ids {
		// the mirror can lag behind deletions; the backend list wins
		if eq, ok := byID[id]; ok {
			out = append(out, eq)
		}
	}
	return out
}

// Upsert and Remove keep the mirror current after console mutations.
func (s *Service) Upsert(ctx context.Context, institutionID string, eq backend.Equipment) {
	if s == nil || s.Index == nil {
		return
	}
	if err := s.Index.Upsert(ctx, institutionID, eq); err != nil {
		logging.FromContext(ctx).Warn("search_upsert_failed", "equipment_id", eq.ID, "error", err)
	}
}

func (s *Service) Remove(ctx context.Context, id string) {
	if s == nil || s.Index == nil {
		return
	}
	if err := s.Index.Delete(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("search_delete_failed", "equipment_id", id, "error", err)
	}
}

// Filter keeps equipment whose name, serial number, description or status
// contains query, ignoring case.
func Filter(all []backend.Equipment, query string) []backend.Equipment {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]backend.Equipment, 0, len(all))
	for _, eq := range all {
		for _, f := range []string{eq.Name, eq.SerialNumber, eq.Description, eq.Status} {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, eq)
				break
			}
		}
	}
	return out
}
