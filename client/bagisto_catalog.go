package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"commerce-hub/domain"
	"commerce-hub/utils/retry"
)

// ErrUpstreamStatus marks a catalog fetch that reached the upstream but got a
// non-2xx answer. Such failures are not retried.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// ProductList is the reshaped product listing served to the UI.
type ProductList struct {
	Products []json.RawMessage `json:"products"`
	Count    int               `json:"count"`
	NextPage *int              `json:"nextPage"`
}

// Category is the reshaped category tree node served to the UI.
type Category struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Handle   string     `json:"handle"`
	ParentID string     `json:"parent_id,omitempty"`
	Children []Category `json:"children,omitempty"`
}

type productListEnvelope struct {
	Data []json.RawMessage `json:"data"`
	Meta struct {
		Pagination struct {
			Total       int `json:"total"`
			CurrentPage int `json:"current_page"`
			TotalPages  int `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

type categoryEnvelope struct {
	Data []rawCategory `json:"data"`
}

type rawCategory struct {
	ID       json.Number   `json:"id"`
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	ParentID json.Number   `json:"parent_id"`
	Children []rawCategory `json:"children_data"`
}

// ListProducts fetches a product page from the upstream catalog, reshaping
// the upstream pagination meta into a cursor for the UI.
func (c *BagistoClient) ListProducts(ctx context.Context, query url.Values) (*ProductList, error) {
	params := url.Values{}
	for key, values := range query {
		for _, v := range values {
			params.Add(key, v)
		}
	}
	if params.Get("page") == "" {
		params.Set("page", "1")
	}
	if params.Get("limit") == "" {
		params.Set("limit", "6")
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/products?"+params.Encode(), domain.Credential{}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var envelope productListEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}

	page, _ := strconv.Atoi(params.Get("page"))
	list := &ProductList{
		Products: envelope.Data,
		Count:    envelope.Meta.Pagination.Total,
	}
	if list.Products == nil {
		list.Products = []json.RawMessage{}
	}
	if envelope.Meta.Pagination.CurrentPage < envelope.Meta.Pagination.TotalPages {
		next := page + 1
		list.NextPage = &next
	}

	return list, nil
}

// GetProductBySlug fetches a single product with a bounded per-attempt
// timeout and linear backoff. Only transport failures are retried; an
// upstream non-2xx ends the fetch immediately.
func (c *BagistoClient) GetProductBySlug(ctx context.Context, slug string) (json.RawMessage, error) {
	var product json.RawMessage

	err := retry.Do(ctx, retry.Config{
		MaxAttempts:       c.productRetries + 1,
		PerAttemptTimeout: c.productTimeout,
		Backoff:           retry.LinearBackoff(500 * time.Millisecond),
		Abort: func(err error) bool {
			return errors.Is(err, ErrUpstreamStatus)
		},
	}, func(ctx context.Context) error {
		resp, err := c.do(ctx, http.MethodGet, "/api/products/slug/"+url.PathEscape(slug), domain.Credential{}, nil)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
		}

		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(resp.Body, &envelope); err != nil {
			return fmt.Errorf("failed to decode product: %w", err)
		}
		product = envelope.Data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// ListCategories fetches the category tree and maps it to the UI shape.
func (c *BagistoClient) ListCategories(ctx context.Context) ([]Category, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/categories", domain.Credential{}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var envelope categoryEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]Category, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		categories = append(categories, mapCategory(raw))
	}
	return categories, nil
}

func mapCategory(raw rawCategory) Category {
	category := Category{
		ID:       raw.ID.String(),
		Name:     raw.Name,
		Handle:   categoryHandle(raw),
		ParentID: raw.ParentID.String(),
	}
	for _, child := range raw.Children {
		category.Children = append(category.Children, mapCategory(child))
	}
	return category
}

func categoryHandle(raw rawCategory) string {
	if raw.Slug != "" {
		return raw.Slug
	}
	return strings.ReplaceAll(strings.ToLower(raw.Name), " ", "-")
}
