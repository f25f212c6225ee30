package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"compass/internal/database/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreateCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cards", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var card models.Card
		require.NoError(t, json.NewDecoder(r.Body).Decode(&card))
		card.ID = "server-id"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(card)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1")
	confirmed, err := c.CreateCard(context.Background(), models.Card{
		ID: "client-id", OwnerID: "o", Company: "Acme", Role: "Intern",
		URL: "https://acme.example", Status: models.StatusToApply,
	})
	require.NoError(t, err)
	assert.Equal(t, "server-id", confirmed.ID)
	assert.Equal(t, "Acme", confirmed.Company)
}

func TestClientSurfacesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid status"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.CreateCard(context.Background(), models.Card{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestClientOpaqueErrorWhenBodyNotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ListCards(context.Background(), "o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClientRejectsUndecodableSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.UpdateCard(context.Background(), models.Card{OwnerID: "o", ID: "x"})
	require.Error(t, err, "an ambiguous success must be treated as a failure")
	assert.Contains(t, err.Error(), "undecodable")
}

func TestClientDeleteParsesAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/cards/o/x", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "x"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.DeleteCard(context.Background(), "o", "x"))
}

func TestClientDeleteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "card not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.DeleteCard(context.Background(), "o", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card not found")
}

func TestClientTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "")
	_, err := c.ListCards(context.Background(), "o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

// End to end through the engine: a store that fails mid-session must leave
// the engine exactly where the last confirmed outcome put it.
func TestEngineAgainstHTTPStore(t *testing.T) {
	var fail bool
	store := map[string]models.Card{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "store on fire"})
			return
		}
		switch r.Method {
		case http.MethodPost:
			var card models.Card
			json.NewDecoder(r.Body).Decode(&card)
			store[card.ID] = card
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(card)
		case http.MethodPut:
			var card models.Card
			json.NewDecoder(r.Body).Decode(&card)
			store[card.ID] = card
			json.NewEncoder(w).Encode(card)
		case http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	}))
	defer srv.Close()

	e := NewEngine("owner-1", NewClient(srv.URL, "t"))

	added, err := e.AddCard(context.Background(), Draft{Company: "Acme", Role: "Intern", URL: "https://acme.example/job/1"})
	require.NoError(t, err)
	require.Len(t, e.Cards(), 1)

	fail = true
	_, err = e.MoveCard(context.Background(), added.ID, models.StatusInProgress)
	require.Error(t, err)
	assert.Equal(t, models.StatusToApply, e.Cards()[0].Status, "failed move must roll back")

	fail = false
	moved, err := e.MoveCard(context.Background(), added.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, moved.Status)

	require.NoError(t, e.DeleteCard(context.Background(), added.ID))
	assert.Empty(t, e.Cards())
}
