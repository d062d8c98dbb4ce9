package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"commerce-hub/cache"
	"commerce-hub/client"
	"commerce-hub/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogClient is a mock implementation of CatalogClient
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) ListProducts(ctx context.Context, query url.Values) (*client.ProductList, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ProductList), args.Error(1)
}

func (m *MockCatalogClient) GetProductBySlug(ctx context.Context, slug string) (json.RawMessage, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockCatalogClient) ListCategories(ctx context.Context) ([]client.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Category), args.Error(1)
}

func TestCatalogHandler_ListProducts(t *testing.T) {
	t.Run("returns the reshaped listing", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		next := 2
		catalog.On("ListProducts", mock.Anything, mock.Anything).Return(&client.ProductList{
			Products: []json.RawMessage{[]byte(`{"id":1}`)},
			Count:    10,
			NextPage: &next,
		}, nil)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))
		c, rec := newCartContext(http.MethodGet, "/api/products?page=1", "")

		require.NoError(t, h.ListProducts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"products":[{"id":1}],"count":10,"nextPage":2}`, rec.Body.String())
	})

	t.Run("upstream failure degrades to an empty listing", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("ListProducts", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))
		c, rec := newCartContext(http.MethodGet, "/api/products", "")

		require.NoError(t, h.ListProducts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"products":[],"count":0,"nextPage":null}`, rec.Body.String())
	})

	t.Run("second fetch from the same browser is served from cache", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("ListProducts", mock.Anything, mock.Anything).
			Return(&client.ProductList{Products: []json.RawMessage{}, Count: 0}, nil).Once()

		responses := cache.NewResponseCache(10, time.Minute)
		h := NewCatalogHandler(catalog, responses)

		for range 2 {
			c, rec := newCartContext(http.MethodGet, "/api/products?page=1", "")
			c.Request().AddCookie(&http.Cookie{Name: domain.CacheIDCookieName, Value: "browser-a"})
			require.NoError(t, h.ListProducts(c))
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		catalog.AssertNumberOfCalls(t, "ListProducts", 1)
	})

	t.Run("cache entries do not leak across browsers", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("ListProducts", mock.Anything, mock.Anything).
			Return(&client.ProductList{Products: []json.RawMessage{}, Count: 0}, nil)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))

		for _, browser := range []string{"browser-a", "browser-b"} {
			c, _ := newCartContext(http.MethodGet, "/api/products", "")
			c.Request().AddCookie(&http.Cookie{Name: domain.CacheIDCookieName, Value: browser})
			require.NoError(t, h.ListProducts(c))
		}

		catalog.AssertNumberOfCalls(t, "ListProducts", 2)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("ListProducts", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()
		catalog.On("ListProducts", mock.Anything, mock.Anything).
			Return(&client.ProductList{Products: []json.RawMessage{}, Count: 3}, nil).Once()

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))

		for range 2 {
			c, _ := newCartContext(http.MethodGet, "/api/products", "")
			c.Request().AddCookie(&http.Cookie{Name: domain.CacheIDCookieName, Value: "browser-a"})
			require.NoError(t, h.ListProducts(c))
		}

		catalog.AssertNumberOfCalls(t, "ListProducts", 2)
	})
}

func TestCatalogHandler_GetProduct(t *testing.T) {
	t.Run("returns the product by slug", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("GetProductBySlug", mock.Anything, "blue-shirt").
			Return(json.RawMessage(`{"id":5,"name":"Blue Shirt"}`), nil)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))
		c, rec := newCartContext(http.MethodGet, "/api/products/blue-shirt", "")
		c.SetParamNames("slug")
		c.SetParamValues("blue-shirt")

		require.NoError(t, h.GetProduct(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"product":{"id":5,"name":"Blue Shirt"}}`, rec.Body.String())
	})

	t.Run("exhausted retries yield 404", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("GetProductBySlug", mock.Anything, "missing").Return(nil, assert.AnError)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))
		c, rec := newCartContext(http.MethodGet, "/api/products/missing", "")
		c.SetParamNames("slug")
		c.SetParamValues("missing")

		require.NoError(t, h.GetProduct(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Product not found.")
	})
}

func TestCatalogHandler_ListCategories(t *testing.T) {
	t.Run("returns the mapped tree", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("ListCategories", mock.Anything).Return([]client.Category{
			{ID: "1", Name: "Root", Handle: "root", Children: []client.Category{
				{ID: "2", Name: "Shoes", Handle: "shoes", ParentID: "1"},
			}},
		}, nil)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))
		c, rec := newCartContext(http.MethodGet, "/api/categories", "")

		require.NoError(t, h.ListCategories(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"handle":"shoes"`)
	})

	t.Run("failure degrades to an empty tree", func(t *testing.T) {
		catalog := new(MockCatalogClient)
		catalog.On("ListCategories", mock.Anything).Return(nil, assert.AnError)

		h := NewCatalogHandler(catalog, cache.NewResponseCache(10, time.Minute))
		c, rec := newCartContext(http.MethodGet, "/api/categories", "")

		require.NoError(t, h.ListCategories(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"categories":[]}`, rec.Body.String())
	})
}
