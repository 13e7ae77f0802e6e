package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind_ReturnsFirstEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain-search", r.URL.Path)
		assert.Equal(t, "vieille-boutique-1998.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Write([]byte(`{"data":{"emails":[{"value":"contact@vieille-boutique-1998.com"},{"value":"other@vieille-boutique-1998.com"}]}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	email, err := c.Find(context.Background(), "vieille-boutique-1998.com", "Vieille Boutique")
	require.NoError(t, err)
	assert.Equal(t, "contact@vieille-boutique-1998.com", email)
}

func TestFind_NoEmailsIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"emails":[]}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	email, err := c.Find(context.Background(), "unknown.example", "")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestFind_APIFailureIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"id":"too_many_requests"}]}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	email, err := c.Find(context.Background(), "some.example", "")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestFind_EmptyDomain(t *testing.T) {
	c := NewClient("test-key")
	email, err := c.Find(context.Background(), "", "Nameless")
	require.NoError(t, err)
	assert.Empty(t, email)
}

func TestFind_Simulation(t *testing.T) {
	c := NewClient("", WithSimulation())

	email, err := c.Find(context.Background(), "vieille-boutique-1998.com", "Vieille Boutique")
	require.NoError(t, err)
	assert.Equal(t, "contact@vieille-boutique-1998.com", email)

	email, err = c.Find(context.Background(), "", "No Domain Shop")
	require.NoError(t, err)
	assert.Equal(t, "contact@example.com", email)
}
