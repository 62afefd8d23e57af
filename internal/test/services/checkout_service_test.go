package services_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pexl-backend/internal/config"
	"pexl-backend/internal/draft"
	"pexl-backend/internal/handlers"
	"pexl-backend/internal/models"
	"pexl-backend/internal/payment"
	"pexl-backend/internal/services"
	"pexl-backend/internal/supabase"
)

// fakeStore is an in-memory CheckoutStore mirroring the database client's
// error contract: missing drafts wrap ErrOrderNotFound, duplicate intents
// on insert return ErrDuplicateOrder.
type fakeStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*draft.Draft
	shops  map[uuid.UUID]models.Shop
	orders map[string]uuid.UUID // payment intent id -> order id
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drafts: make(map[uuid.UUID]*draft.Draft),
		shops:  make(map[uuid.UUID]models.Shop),
		orders: make(map[string]uuid.UUID),
	}
}

func (f *fakeStore) GetDraft(userID uuid.UUID) (*draft.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.drafts[userID]; ok {
		copied := *d
		return &copied, nil
	}
	return &draft.Draft{}, nil
}

func (f *fakeStore) MutateDraft(userID uuid.UUID, fn func(*draft.Draft) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[userID]
	if !ok {
		d = &draft.Draft{}
		f.drafts[userID] = d
	}
	return fn(d)
}

func (f *fakeStore) FindDraftByIntent(intentID string) (uuid.UUID, *draft.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for userID, d := range f.drafts {
		if d.PaymentIntentID == intentID {
			copied := *d
			return userID, &copied, nil
		}
	}
	return uuid.Nil, nil, fmt.Errorf("no draft for payment intent %s: %w", intentID, supabase.ErrOrderNotFound)
}

func (f *fakeStore) ClearDraft(userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, userID)
	return nil
}

func (f *fakeStore) GetShop(shopID uuid.UUID) (*models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if shop, ok := f.shops[shopID]; ok {
		return &shop, nil
	}
	return nil, supabase.ErrShopNotFound
}

func (f *fakeStore) CreateOrder(userID uuid.UUID, payload *models.OrderPayload) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payload.PaymentIntentID != "" {
		if _, ok := f.orders[payload.PaymentIntentID]; ok {
			return uuid.Nil, supabase.ErrDuplicateOrder
		}
	}
	orderID := uuid.New()
	f.orders[payload.PaymentIntentID] = orderID
	return orderID, nil
}

func (f *fakeStore) OrderExistsForIntent(intentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.orders[intentID]
	return ok, nil
}

func (f *fakeStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) PublishShopEvent(ownerMail string, event string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func newPaidDraftStore(t *testing.T, intentID string) (*fakeStore, uuid.UUID) {
	t.Helper()
	store := newFakeStore()

	shopID := uuid.New()
	store.shops[shopID] = models.Shop{
		ID:         shopID,
		Name:       "Campus Prints",
		OwnerMail:  "owner@example.com",
		PriceBW:    2,
		PriceColor: 5,
	}

	userID := uuid.New()
	var d draft.Draft
	d.RegisterFile("tmp-1", "essay.pdf", 2048, "application/pdf")
	require.NoError(t, d.CompleteUpload("tmp-1", "srv-1", 10))
	d.ShopID = shopID.String()
	d.PaymentIntentID = intentID
	store.drafts[userID] = &d

	return store, userID
}

func newCheckoutService(store *fakeStore, publisher *fakePublisher) *services.CheckoutService {
	logger := logrus.New()
	coordinator := payment.NewCoordinator(payment.NewClient("http://unused.invalid", "sk_test"), 0)
	return services.NewCheckoutService(store, coordinator, publisher, "inr", logger)
}

func TestHandlePaymentSucceeded_CreatesOrderAndClearsDraft(t *testing.T) {
	store, userID := newPaidDraftStore(t, "pi_1")
	publisher := &fakePublisher{}
	svc := newCheckoutService(store, publisher)

	require.NoError(t, svc.HandlePaymentSucceeded("pi_1"))

	assert.Equal(t, 1, store.orderCount())
	_, ok := store.drafts[userID]
	assert.False(t, ok, "draft is cleared after the order is submitted")
	assert.Contains(t, publisher.events, "order_created")
}

func TestHandlePaymentSucceeded_RedeliveryAfterDraftCleared(t *testing.T) {
	store, _ := newPaidDraftStore(t, "pi_1")
	svc := newCheckoutService(store, &fakePublisher{})

	require.NoError(t, svc.HandlePaymentSucceeded("pi_1"))

	// The first delivery cleared the draft. The processor delivers the same
	// success event again; it must be acknowledged, not errored.
	require.NoError(t, svc.HandlePaymentSucceeded("pi_1"))
	require.NoError(t, svc.HandlePaymentSucceeded("pi_1"))

	assert.Equal(t, 1, store.orderCount())
}

func TestHandlePaymentSucceeded_UnknownIntentIsAnError(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakePublisher{})

	err := svc.HandlePaymentSucceeded("pi_never_seen")
	assert.ErrorIs(t, err, supabase.ErrOrderNotFound)
	assert.Equal(t, 0, store.orderCount())
}

func TestHandlePaymentFailed_KeepsDraft(t *testing.T) {
	store, userID := newPaidDraftStore(t, "pi_1")
	publisher := &fakePublisher{}
	svc := newCheckoutService(store, publisher)

	svc.HandlePaymentFailed("pi_1", "card declined")

	_, ok := store.drafts[userID]
	assert.True(t, ok, "draft survives a failed payment for retry")
	assert.Equal(t, 0, store.orderCount())
	assert.Contains(t, publisher.events, "payment_failed")
}

func TestCreateIntent_RecomputesAmountServerSide(t *testing.T) {
	store, userID := newPaidDraftStore(t, "")

	var chargedAmount string
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		chargedAmount = r.PostForm.Get("amount")
		w.Write([]byte(`{"id":"pi_9","client_secret":"pi_9_secret","status":"requires_payment_method","amount":5500,"currency":"inr"}`))
	}))
	defer processor.Close()

	coordinator := payment.NewCoordinator(payment.NewClient(processor.URL, "sk_test"), 0)
	svc := services.NewCheckoutService(store, coordinator, &fakePublisher{}, "inr", logrus.New())

	// 10 color single-sided pages at 5.0 = 50 subtotal + 5 flat fee = 55.
	intent, quote, err := svc.CreateIntent(userID)
	require.NoError(t, err)

	assert.Equal(t, "5500", chargedAmount, "the charge comes from the server-side quote")
	assert.Equal(t, 55.0, quote.Total)
	assert.Equal(t, "pi_9", intent.ID)
	assert.Equal(t, "pi_9", store.drafts[userID].PaymentIntentID)
}

func TestPaymentWebhook_RedeliveredSuccessAcknowledged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, _ := newPaidDraftStore(t, "pi_1")
	svc := newCheckoutService(store, &fakePublisher{})

	cfg := &config.Config{PaymentWebhookToken: "whsec_test"}
	handler := handlers.NewWebhookHandler(cfg, svc, logrus.New())
	router := gin.New()
	router.POST("/webhooks/payment", handler.HandlePayment)

	deliver := func() int {
		body := `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
		req, _ := http.NewRequest("POST", "/webhooks/payment", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer whsec_test")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, deliver())
	assert.Equal(t, http.StatusOK, deliver(), "redelivery after the draft is cleared still gets a 200")
	assert.Equal(t, 1, store.orderCount())
}
