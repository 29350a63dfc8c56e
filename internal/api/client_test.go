package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/studyhall-app/studyhall/internal/models"
)

func TestHistoryQueryAndDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/history", r.URL.Path)
		require.Equal(t, "u-1", r.URL.Query().Get("user"))
		require.Equal(t, "u-2", r.URL.Query().Get("counterpart"))
		require.Equal(t, "3", r.URL.Query().Get("page"))
		require.Equal(t, "20", r.URL.Query().Get("size"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(HistoryPage{
			Content: []models.Message{{
				ID:          "m-1",
				SenderID:    "u-2",
				RecipientID: "u-1",
				Content:     "hello",
				Kind:        models.KindText,
				Timestamp:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			}},
			Last: true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	page, err := c.History(context.Background(), "u-1", "u-2", 3, 20)
	require.NoError(t, err)
	require.True(t, page.Last)
	require.Len(t, page.Content, 1)
	require.Equal(t, "hello", page.Content[0].Content)
}

func TestUnreadCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages/unread", r.URL.Path)
		w.Write([]byte(`{"count": 12}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	count, err := c.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, 12, count)
}

func TestUnreadCountFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.UnreadCount(context.Background(), "u-1")
	require.Error(t, err)
}

func TestContactsBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contacts", r.URL.Path)
		json.NewEncoder(w).Encode(models.ContactBundle{
			Friends:    []models.Contact{{ID: "u-2", DisplayName: "Bea", Category: models.CategoryFriends}},
			Classmates: []models.Contact{{ID: "u-3", DisplayName: "Cal", Category: models.CategoryClassmates}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	bundle, err := c.Contacts(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, bundle.All(), 2)
	require.Equal(t, "Bea", bundle.Friends[0].DisplayName)
}

func TestAskAssistant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/assistant/chat", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "42", body["courseId"])
		require.Equal(t, "what is a derivative?", body["question"])

		w.Write([]byte(`{"answer": "the rate of change"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	answer, err := c.AskAssistant(context.Background(), "42", "what is a derivative?")
	require.NoError(t, err)
	require.Equal(t, "the rate of change", answer)
}

func TestAskAssistantEntitlementClassification(t *testing.T) {
	for _, status := range []int{http.StatusPaymentRequired, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(srv.URL, "tok")
		_, err := c.AskAssistant(context.Background(), "42", "q")
		require.True(t, errors.Is(err, ErrEntitlement), "status %d should classify as entitlement", status)
		srv.Close()
	}
}

func TestAskAssistantGenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.AskAssistant(context.Background(), "42", "q")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrEntitlement))
}
