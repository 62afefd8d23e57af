package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"pexl-backend/internal/handlers"
	"pexl-backend/internal/payment"
)

func newPaymentsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":5500,"currency":"inr"}`))
	}))
	t.Cleanup(processor.Close)

	coordinator := payment.NewCoordinator(payment.NewClient(processor.URL, "sk_test"), 0)
	handler := handlers.NewPaymentsHandler(coordinator, "inr")

	router := gin.New()
	router.POST("/payments/intents", handler.CreateIntent)
	return router
}

func TestCreatePaymentIntent(t *testing.T) {
	router := newPaymentsRouter(t)

	req, _ := http.NewRequest("POST", "/payments/intents", strings.NewReader(`{"amount":55}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pi_1_secret")
}

func TestCreatePaymentIntent_ZeroAmount(t *testing.T) {
	router := newPaymentsRouter(t)

	req, _ := http.NewRequest("POST", "/payments/intents", strings.NewReader(`{"amount":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePaymentIntent_NegativeAmount(t *testing.T) {
	router := newPaymentsRouter(t)

	req, _ := http.NewRequest("POST", "/payments/intents", strings.NewReader(`{"amount":-10}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
