package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"pexl-backend/internal/config"
	"pexl-backend/internal/handlers"
	"pexl-backend/internal/services"
)

func newWebhookRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	checkout := services.NewCheckoutService(nil, nil, nil, "inr", logger)
	handler := handlers.NewWebhookHandler(cfg, checkout, logger)

	router := gin.New()
	router.POST("/webhooks/payment", handler.HandlePayment)
	return router
}

func TestPaymentWebhook_MissingToken(t *testing.T) {
	router := newWebhookRouter(&config.Config{PaymentWebhookToken: "whsec_test"})

	req, _ := http.NewRequest("POST", "/webhooks/payment", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentWebhook_WrongToken(t *testing.T) {
	router := newWebhookRouter(&config.Config{PaymentWebhookToken: "whsec_test"})

	req, _ := http.NewRequest("POST", "/webhooks/payment", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer whsec_wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentWebhook_InvalidJSON(t *testing.T) {
	router := newWebhookRouter(&config.Config{PaymentWebhookToken: "whsec_test"})

	req, _ := http.NewRequest("POST", "/webhooks/payment", strings.NewReader(`not-json`))
	req.Header.Set("Authorization", "Bearer whsec_test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhook_MissingIntentID(t *testing.T) {
	router := newWebhookRouter(&config.Config{PaymentWebhookToken: "whsec_test"})

	body := `{"type":"payment_intent.succeeded","data":{"object":{}}}`
	req, _ := http.NewRequest("POST", "/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer whsec_test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhook_UnhandledEventAcknowledged(t *testing.T) {
	router := newWebhookRouter(&config.Config{PaymentWebhookToken: "whsec_test"})

	body := `{"type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`
	req, _ := http.NewRequest("POST", "/webhooks/payment", strings.NewReader(body))
	// Token accepted without the Bearer prefix too.
	req.Header.Set("Authorization", "whsec_test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
