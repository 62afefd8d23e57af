// Package payment talks to the card-payment processor and coordinates the
// intent lifecycle around an order checkout.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a thin REST client for the payment processor's intents API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Intent is the processor's payment-intent resource.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// IntentCreationError is returned when the processor refuses an intent or
// answers without a usable authorization handle. It is user-visible and the
// request may be retried.
type IntentCreationError struct {
	StatusCode int
	Body       string
}

func (e *IntentCreationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment intent creation failed: status %d, body: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("payment intent creation failed: %s", e.Body)
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateIntent requests a payment authorization for amount in the smallest
// currency unit. The processor expects a form-encoded body and returns the
// client secret the hosted payment UI confirms against.
func (c *Client) CreateIntent(amount int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &IntentCreationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	if intent.ClientSecret == "" {
		return nil, &IntentCreationError{Body: "response is missing client_secret"}
	}

	return &intent, nil
}

// GetIntent fetches the current state of an intent.
func (c *Client) GetIntent(intentID string) (*Intent, error) {
	req, err := http.NewRequest("GET", c.baseURL+"/v1/payment_intents/"+intentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get intent: status %d, body: %s", resp.StatusCode, string(body))
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return &intent, nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
// Intent-creation refusals are not retried; resubmitting a rejected amount
// will not change the answer.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var creationErr *IntentCreationError
		if errors.As(err, &creationErr) && creationErr.StatusCode >= 400 && creationErr.StatusCode < 500 {
			return err
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
