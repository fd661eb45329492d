package contacts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"github.com/abenikeb/biisho-a2p/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) contacts.Client {
	cfg := contacts.Config{BaseURL: serverURL, Timeout: 5 * time.Second}
	return contacts.NewClient(cfg, httpclient.NewHTTPClient(cfg.Timeout))
}

func TestClient_ListMembers(t *testing.T) {
	ctx := context.Background()

	t.Run("returns members of the list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/accounts/acct-1/lists/list-1/members", r.URL.Path)
			assert.Equal(t, "active", r.URL.Query().Get("status"))

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"members":[{"address":"+251911000001","name":"Abel","status":"active"}]}`))
		}))
		defer server.Close()

		members, err := newTestClient(server.URL).ListMembers(ctx, "acct-1", "list-1")

		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "+251911000001", members[0].Address)
		assert.Equal(t, "Abel", members[0].Name)
	})

	t.Run("unknown list returns ErrListNotFound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		members, err := newTestClient(server.URL).ListMembers(ctx, "acct-1", "missing")

		assert.Nil(t, members)
		assert.ErrorIs(t, err, contacts.ErrListNotFound)
	})

	t.Run("server error returns ErrUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).ListMembers(ctx, "acct-1", "list-1")

		assert.ErrorIs(t, err, contacts.ErrUnavailable)
	})

	t.Run("empty list body yields no members", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"members":[]}`))
		}))
		defer server.Close()

		members, err := newTestClient(server.URL).ListMembers(ctx, "acct-1", "list-1")

		require.NoError(t, err)
		assert.Empty(t, members)
	})
}
