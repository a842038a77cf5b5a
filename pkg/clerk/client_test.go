package clerk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{SecretKey: "sk_test_123", BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresSecretKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrMissingSecretKey)

	client, err := NewClient(Config{SecretKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
}

func TestClient_ListUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"id":              "user_1",
				"first_name":      "Ada",
				"last_name":       nil,
				"image_url":       "https://img.clerk.com/a.png",
				"email_addresses": []map[string]string{{"id": "e1", "email_address": "ada@example.com"}},
				"created_at":      1700000000000,
			},
		})
	})

	users, err := client.ListUsers(context.Background(), ListUsersParams{Limit: 50})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "user_1", users[0].ID)
	require.NotNil(t, users[0].FirstName)
	assert.Equal(t, "Ada", *users[0].FirstName)
	assert.Nil(t, users[0].LastName)
	assert.Equal(t, "ada@example.com", users[0].EmailAddresses[0].EmailAddress)
	assert.Equal(t, int64(1700000000), users[0].CreatedTime().Unix())
}

func TestClient_GetUserWithMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/user_2", r.URL.Path)
		w.Write([]byte(`{"id":"user_2","public_metadata":{"machines":[{"id":"m1","name":"Press","lastStamped":"2024-01-01"}]}}`))
	})

	user, err := client.GetUser(context.Background(), "user_2")
	require.NoError(t, err)
	assert.Contains(t, string(user.PublicMetadata["machines"]), "Press")
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrUserNotFound},
		{"server error", http.StatusInternalServerError, ErrRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"errors":[{"message":"nope","code":"x"}]}`))
			})

			_, err := client.GetUser(context.Background(), "user_x")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_GetUserRejectsEmptyID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.GetUser(context.Background(), " ")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
