package payment_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pexl-backend/internal/payment"
)

func TestCreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5000", r.PostForm.Get("amount"))
		assert.Equal(t, "inr", r.PostForm.Get("currency"))
		assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))
		assert.Equal(t, "user-1", r.PostForm.Get("metadata[user_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":5000,"currency":"inr"}`))
	}))
	defer server.Close()

	client := payment.NewClient(server.URL, "sk_test_123")
	intent, err := client.CreateIntent(5000, "inr", map[string]string{"user_id": "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(5000), intent.Amount)
}

func TestCreateIntent_ProcessorRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Amount must be at least 50 cents"}}`))
	}))
	defer server.Close()

	client := payment.NewClient(server.URL, "sk_test_123")
	_, err := client.CreateIntent(1, "inr", nil)

	var creationErr *payment.IntentCreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, http.StatusBadRequest, creationErr.StatusCode)
}

func TestCreateIntent_MissingClientSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pi_1","status":"requires_payment_method"}`))
	}))
	defer server.Close()

	client := payment.NewClient(server.URL, "sk_test_123")
	_, err := client.CreateIntent(5000, "inr", nil)

	var creationErr *payment.IntentCreationError
	assert.ErrorAs(t, err, &creationErr)
}

func TestGetIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"succeeded","amount":5000,"currency":"inr"}`))
	}))
	defer server.Close()

	client := payment.NewClient(server.URL, "sk_test_123")
	intent, err := client.GetIntent("pi_1")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status)
}

func TestRetryWithBackoff_DoesNotRetryRejections(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad amount"}`))
	}))
	defer server.Close()

	client := payment.NewClient(server.URL, "sk_test_123")
	err := client.RetryWithBackoff(func() error {
		_, err := client.CreateIntent(1, "inr", nil)
		return err
	}, 3)

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a rejected amount will not change on retry")
}
