// Package store holds shared application state containers.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"commerce-hub/client"
	"commerce-hub/domain"
	"commerce-hub/utils/retry"
)

// CartFetcher is the upstream dependency needed to refresh the cart.
type CartFetcher interface {
	GetCart(ctx context.Context, cred domain.Credential) (*client.UpstreamResponse, error)
}

// CartStore is the single source of truth for the cart item count. It is
// injected into handlers rather than reached through package-level state,
// refreshable on demand and subscribable by multiple views.
type CartStore struct {
	mu          sync.RWMutex
	quantity    int
	subscribers map[int]chan int
	nextID      int

	fetcher CartFetcher
	retries int
}

// NewCartStore creates a cart store backed by the given fetcher. retries is
// the total number of refresh attempts before giving up.
func NewCartStore(fetcher CartFetcher, retries int) *CartStore {
	if retries < 1 {
		retries = 1
	}
	return &CartStore{
		subscribers: make(map[int]chan int),
		fetcher:     fetcher,
		retries:     retries,
	}
}

// Quantity returns the current cart item count.
func (s *CartStore) Quantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quantity
}

// Set updates the item count and notifies subscribers.
func (s *CartStore) Set(quantity int) {
	s.mu.Lock()
	s.quantity = quantity
	channels := make([]chan int, 0, len(s.subscribers))
	for _, ch := range s.subscribers {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- quantity:
		default: // slow subscriber, skip rather than block
		}
	}
}

// Subscribe registers a change listener. The returned id releases it.
func (s *CartStore) Subscribe() (int, <-chan int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan int, 1)
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a listener registered with Subscribe.
func (s *CartStore) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Refresh re-derives the item count from the upstream cart with bounded
// retries and backoff. On final failure the count resets to zero.
func (s *CartStore) Refresh(ctx context.Context, cred domain.Credential) error {
	var quantity int

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: s.retries,
		Backoff:     retry.LinearBackoff(300 * time.Millisecond),
	}, func(ctx context.Context) error {
		resp, err := s.fetcher.GetCart(ctx, cred)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("cart fetch returned status %d", resp.StatusCode)
		}

		total, err := sumItemQuantities(resp.Body)
		if err != nil {
			return err
		}
		quantity = total
		return nil
	})
	if err != nil {
		s.Set(0)
		return err
	}

	s.Set(quantity)
	return nil
}

func sumItemQuantities(body []byte) (int, error) {
	var cart struct {
		Data struct {
			Items []struct {
				Quantity int `json:"quantity"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &cart); err != nil {
		return 0, fmt.Errorf("failed to decode cart: %w", err)
	}

	total := 0
	for _, item := range cart.Data.Items {
		total += item.Quantity
	}
	return total, nil
}
