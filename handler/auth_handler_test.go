package handler

import (
	"net/http"
	"testing"

	"commerce-hub/client"
	"commerce-hub/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	t.Run("passes credentials through and re-issues the session", func(t *testing.T) {
		commerce := new(MockCommerceClient)
		commerce.On("Login", mock.Anything, []byte(`{"email":"jo@example.com","password":"pw"}`)).
			Return(&client.UpstreamResponse{
				StatusCode:   http.StatusOK,
				Body:         []byte(`{"token":"bearer-token","data":{"email":"jo@example.com"}}`),
				SessionToken: "sess-login",
			}, nil)

		h := NewAuthHandler(commerce)
		c, rec := newCartContext(http.MethodPost, "/api/proxy/login", `{"email":"jo@example.com","password":"pw"}`)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "bearer-token")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, domain.SessionCookieName, cookies[0].Name)
		assert.Equal(t, "sess-login", cookies[0].Value)
	})

	t.Run("wrong credentials keep the upstream status", func(t *testing.T) {
		commerce := new(MockCommerceClient)
		commerce.On("Login", mock.Anything, mock.Anything).
			Return(&client.UpstreamResponse{StatusCode: http.StatusUnauthorized, Body: []byte(`{"error":"Invalid credentials"}`)}, nil)

		h := NewAuthHandler(commerce)
		c, rec := newCartContext(http.MethodPost, "/api/proxy/login", `{"email":"jo@example.com","password":"bad"}`)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("transport failure yields 500", func(t *testing.T) {
		commerce := new(MockCommerceClient)
		commerce.On("Login", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		h := NewAuthHandler(commerce)
		c, rec := newCartContext(http.MethodPost, "/api/proxy/login", `{}`)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Something went wrong.")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(new(MockCommerceClient))
	c, rec := newCartContext(http.MethodPost, "/api/proxy/logout", "")

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, domain.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
