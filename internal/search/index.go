package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
)

// Index is a searchable mirror of the equipment list. The backend stays the
// source of truth; the mirror only ranks ids.
type Index interface {
	Upsert(ctx context.Context, institutionID string, eq backend.Equipment) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context, institutionID string, eqs []backend.Equipment) error
	Search(ctx context.Context, institutionID, query string, from, size int) (int64, []string, error)
}

type document struct {
	ID            string `json:"id"`
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
	SerialNumber  string `json:"serial_number"`
	Description   string `json:"description"`
	Status        string `json:"status"`
}

func toDocument(institutionID string, eq backend.Equipment) document {
	return document{
		ID:            eq.ID.String(),
		InstitutionID: institutionID,
		Name:          eq.Name,
		SerialNumber:  eq.SerialNumber,
		Description:   eq.Description,
		Status:        eq.Status,
	}
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESIndex(es *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{es: es, index: index}
}

// mapping keeps ids exact so the institution filter matches whole values.
const mapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "institution_id": {"type": "keyword"},
      "name":           {"type": "text"},
      "serial_number":  {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "description":    {"type": "text"},
      "status":         {"type": "text"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index exists %s: %w", x.index, err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("search: index exists %s: %s", x.index, res.Status())
	}

	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(ctx),
		x.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("search: create index %s: %w", x.index, err)
	}
	if res.StatusCode == http.StatusBadRequest {
		// another console instance created it first
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		res.Body.Close()
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("search: create index %s: %s: %s", x.index, res.Status(), body)
	}
	return checkResponse(res, "create index")
}

func (x *ESIndex) Upsert(ctx context.Context, institutionID string, eq backend.Equipment) error {
	body, err := json.Marshal(toDocument(institutionID, eq))
	if err != nil {
		return fmt.Errorf("search: encode %s: %w", eq.ID, err)
	}
	res, err := x.es.Index(x.index, bytes.NewReader(body),
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(eq.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("search: index %s: %w", eq.ID, err)
	}
	return checkResponse(res, "index")
}

func (x *ESIndex) Delete(ctx context.Context, id string) error {
	res, err := x.es.Delete(x.index, id, x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete %s: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete")
}

// Sync bulk-indexes the equipment list fetched from the backend.
func (x *ESIndex) Sync(ctx context.Context, institutionID string, eqs []backend.Equipment) error {
	if len(eqs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, eq := range eqs {
		meta := map[string]any{"index": map[string]any{"_index": x.index, "_id": eq.ID.String()}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("search: encode bulk meta: %w", err)
		}
		if err := enc.Encode(toDocument(institutionID, eq)); err != nil {
			return fmt.Errorf("search: encode bulk doc: %w", err)
		}
	}
	// wait_for makes the documents visible to the Search that follows
	res, err := x.es.Bulk(&buf,
		x.es.Bulk.WithContext(ctx),
		x.es.Bulk.WithIndex(x.index),
		x.es.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("search: bulk: %w", err)
	}
	return checkBulk(res)
}

// Search returns matching equipment ids, best match first.
func (x *ESIndex) Search(ctx context.Context, institutionID, query string, from, size int) (int64, []string, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "serial_number^2", "description", "status"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"institution_id": institutionID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: query: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	ids := make([]string, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("search: %s: %s: %s", op, res.Status(), body)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// checkBulk also fails on a 200 response whose items report errors.
func checkBulk(res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("search: bulk: %s: %s", res.Status(), body)
	}
	var r struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return fmt.Errorf("search: bulk: decode: %w", err)
	}
	if !r.Errors {
		return nil
	}
	failed := 0
	var first string
	for _, item := range r.Items {
		for _, op := range item {
			if op.Status >= 300 {
				failed++
				if first == "" {
					first = fmt.Sprintf("%s: %s: %s", op.ID, op.Error.Type, op.Error.Reason)
				}
			}
		}
	}
	return fmt.Errorf("search: bulk: %d of %d items failed, first %s", failed, len(r.Items), first)
}
