// Package audit mirrors order status history into Elasticsearch for the
// back office. The relational history table stays authoritative.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

type Entry struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"order_id"`
	MerchantOrderID string    `json:"merchant_order_id"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	Comment         string    `json:"comment,omitempty"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

// IndexHistory stores entry under its history id, so a retried call
// overwrites instead of duplicating.
func (ix *Indexer) IndexHistory(ctx context.Context, e Entry) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}

	res, err := ix.ES.Index(ix.Index, &buf,
		ix.ES.Index.WithDocumentID(e.ID),
		ix.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index history: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index history: %s: %s", res.Status(), body)
	}
	return nil
}

// History returns the indexed entries of one order, oldest first.
func (ix *Indexer) History(ctx context.Context, orderID string, from, size int) ([]Entry, error) {
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"order_id.keyword": orderID},
		},
		"sort": []any{map[string]any{"created_at": "asc"}},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := ix.ES.Search(
		ix.ES.Search.WithContext(ctx),
		ix.ES.Search.WithIndex(ix.Index),
		ix.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search history: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	out := make([]Entry, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return out, nil
}
