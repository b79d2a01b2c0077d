package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
)

type fakeIndex struct {
	synced    []backend.Equipment
	ids       []string
	searchErr error
	syncErr   error
}

func (f *fakeIndex) Upsert(context.Context, string, backend.Equipment) error { return nil }
func (f *fakeIndex) Delete(context.Context, string) error                    { return nil }

func (f *fakeIndex) Sync(_ context.Context, _ string, eqs []backend.Equipment) error {
	f.synced = eqs
	return f.syncErr
}

func (f *fakeIndex) Search(context.Context, string, string, int, int) (int64, []string, error) {
	return int64(len(f.ids)), f.ids, f.searchErr
}

var inventory = []backend.Equipment{
	{ID: "1", Name: "Autoclave", SerialNumber: "AC-100", Status: backend.EquipmentActive},
	{ID: "2", Name: "Centrífuga", SerialNumber: "CF-200", Description: "Laboratorio clínico", Status: backend.EquipmentMaintenance},
	{ID: "3", Name: "Monitor", SerialNumber: "MN-300", Status: backend.EquipmentInactive},
}

func ids(eqs []backend.Equipment) []backend.ID {
	out := make([]backend.ID, 0, len(eqs))
	for _, eq := range eqs {
		out = append(out, eq.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []backend.ID{"1"}, ids(Filter(inventory, "auto")))
	assert.Equal(t, []backend.ID{"2"}, ids(Filter(inventory, "CLÍNICO")))
	assert.Equal(t, []backend.ID{"3"}, ids(Filter(inventory, "mn-3")))
	assert.Equal(t, []backend.ID{"2"}, ids(Filter(inventory, "mantenimiento")))
	assert.Len(t, Filter(inventory, "  "), 3)
	assert.Empty(t, Filter(inventory, "rayos x"))
}

func TestService_FindUsesIndexRanking(t *testing.T) {
	idx := &fakeIndex{ids: []string{"3", "99", "1"}}
	s := &Service{Index: idx}

	got := s.Find(context.Background(), "7", "mon", inventory)
	assert.Equal(t, []backend.ID{"3", "1"}, ids(got))
	assert.Len(t, idx.synced, 3)
}

func TestService_FindFallsBackToFilter(t *testing.T) {
	for name, idx := range map[string]*fakeIndex{
		"search error": {searchErr: errors.New("es down")},
		"sync error":   {syncErr: errors.New("es down")},
	} {
		t.Run(name, func(t *testing.T) {
			s := &Service{Index: idx}
			assert.Equal(t, []backend.ID{"1"}, ids(s.Find(context.Background(), "7", "autoclave", inventory)))
		})
	}

	var nilSvc *Service
	assert.Equal(t, []backend.ID{"1"}, ids(nilSvc.Find(context.Background(), "7", "autoclave", inventory)))
	assert.Len(t, (&Service{}).Find(context.Background(), "7", "", inventory), 3)
}

func TestCalculate(t *testing.T) {
	off, lim := Calculate(0, 0)
	assert.Equal(t, 0, off)
	assert.Equal(t, DefaultPageSize, lim)

	off, lim = Calculate(3, 20)
	assert.Equal(t, 40, off)
	assert.Equal(t, 20, lim)

	_, lim = Calculate(1, 500)
	assert.Equal(t, DefaultPageSize, lim)
}
