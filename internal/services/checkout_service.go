package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
	"pexl-backend/internal/payment"
	"pexl-backend/internal/pricing"
	"pexl-backend/internal/supabase"
)

// ErrNoShopSelected blocks checkout until the customer picks a print shop.
var ErrNoShopSelected = errors.New("no shop selected for this order")

// CheckoutStore is the slice of the database client the checkout path uses.
// *supabase.DatabaseClient satisfies it.
type CheckoutStore interface {
	GetDraft(userID uuid.UUID) (*draft.Draft, error)
	MutateDraft(userID uuid.UUID, fn func(*draft.Draft) error) error
	FindDraftByIntent(intentID string) (uuid.UUID, *draft.Draft, error)
	ClearDraft(userID uuid.UUID) error
	GetShop(shopID uuid.UUID) (*models.Shop, error)
	CreateOrder(userID uuid.UUID, payload *models.OrderPayload) (uuid.UUID, error)
	OrderExistsForIntent(intentID string) (bool, error)
}

// EventPublisher pushes order and payment events to interested channels.
// *supabase.RealtimeClient satisfies it.
type EventPublisher interface {
	PublishShopEvent(ownerMail string, event string, payload map[string]interface{}) error
	PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error
}

// CheckoutService owns the path from a draft to a paid order: quoting,
// intent creation and the exactly-once order submission on payment success.
type CheckoutService struct {
	db          CheckoutStore
	coordinator *payment.Coordinator
	realtime    EventPublisher
	currency    string
	logger      *logrus.Logger
}

func NewCheckoutService(
	db CheckoutStore,
	coordinator *payment.Coordinator,
	realtime EventPublisher,
	currency string,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:          db,
		coordinator: coordinator,
		realtime:    realtime,
		currency:    currency,
		logger:      logger,
	}
}

// QuoteDraft prices a draft with the given shop's rates. Files whose settings
// entry cannot be found are skipped; they are logged because a skipped file
// means the draft state is inconsistent, not that the customer removed it.
func (s *CheckoutService) QuoteDraft(dr *draft.Draft, shop *models.Shop) (pricing.Quote, error) {
	items, skipped := dr.PricingItems()
	for _, name := range skipped {
		s.logger.WithField("file", name).Warn("file has no settings entry, excluded from quote")
	}
	return pricing.Compute(items, pricing.Rates{
		BlackAndWhite: shop.PriceBW,
		Color:         shop.PriceColor,
	})
}

// CreateIntent recomputes the draft's total server-side and requests a payment
// intent for it. The client-submitted amount is never trusted. The intent id
// is stored on the draft so the success callback can find its way back.
func (s *CheckoutService) CreateIntent(userID uuid.UUID) (*payment.Intent, pricing.Quote, error) {
	dr, err := s.db.GetDraft(userID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	if dr.ShopID == "" {
		return nil, pricing.Quote{}, ErrNoShopSelected
	}

	shopID, err := uuid.Parse(dr.ShopID)
	if err != nil {
		return nil, pricing.Quote{}, fmt.Errorf("invalid shop id on draft: %w", err)
	}
	shop, err := s.db.GetShop(shopID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	quote, err := s.QuoteDraft(dr, shop)
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	// Dry-run assembly so an incomplete draft is rejected before the
	// processor is charged with an intent nothing can fulfil.
	if _, err := dr.Assemble("dry-run", *shop, quote); err != nil {
		return nil, pricing.Quote{}, err
	}

	intent, err := s.coordinator.Begin(pricing.MinorUnits(quote.Total), s.currency, map[string]string{
		"user_id": userID.String(),
		"shop_id": shop.ID.String(),
	})
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	err = s.db.MutateDraft(userID, func(d *draft.Draft) error {
		d.PaymentIntentID = intent.ID
		return nil
	})
	if err != nil {
		return nil, pricing.Quote{}, fmt.Errorf("failed to attach intent to draft: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":           userID,
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
	}).Info("Payment intent created")

	return intent, quote, nil
}

// CreateOrderFromDraft submits the draft as an order without a payment
// intent, for flows where payment is settled at the shop. The draft must be
// complete; on success it is cleared.
func (s *CheckoutService) CreateOrderFromDraft(userID uuid.UUID) (uuid.UUID, string, error) {
	dr, err := s.db.GetDraft(userID)
	if err != nil {
		return uuid.Nil, "", err
	}
	if dr.ShopID == "" {
		return uuid.Nil, "", ErrNoShopSelected
	}

	shopID, err := uuid.Parse(dr.ShopID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid shop id on draft: %w", err)
	}
	shop, err := s.db.GetShop(shopID)
	if err != nil {
		return uuid.Nil, "", err
	}

	quote, err := s.QuoteDraft(dr, shop)
	if err != nil {
		return uuid.Nil, "", err
	}

	dr.PaymentIntentID = ""
	payload, err := dr.Assemble(newOrderRef(), *shop, quote)
	if err != nil {
		return uuid.Nil, "", err
	}

	orderID, err := s.db.CreateOrder(userID, payload)
	if err != nil {
		return uuid.Nil, "", err
	}

	if err := s.realtime.PublishShopEvent(payload.OwnerMail, "order_created",
		supabase.OrderCreatedPayload(orderID, payload.OrderRef, payload.TotalPrice)); err != nil {
		s.logger.WithError(err).Warn("Failed to publish order_created event")
	}

	if err := s.db.ClearDraft(userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to clear draft after order")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":  orderID,
		"order_ref": payload.OrderRef,
	}).Info("Order created directly from draft")

	return orderID, payload.OrderRef, nil
}

// HandlePaymentSucceeded turns a confirmed payment into an active order. The
// coordinator's one-shot guard plus the order store's unique intent constraint
// keep redelivered callbacks from creating a second order. On success the
// draft is cleared.
func (s *CheckoutService) HandlePaymentSucceeded(intentID string) error {
	userID, dr, err := s.db.FindDraftByIntent(intentID)
	if errors.Is(err, supabase.ErrOrderNotFound) {
		// The draft is cleared once its order is submitted, so a success
		// callback redelivered after full processing finds no draft. If the
		// order is there, acknowledge instead of making the processor retry
		// forever.
		exists, lookupErr := s.db.OrderExistsForIntent(intentID)
		if lookupErr != nil {
			return lookupErr
		}
		if exists {
			s.logger.WithField("payment_intent_id", intentID).
				Info("Success callback redelivered after order submission, ignoring")
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}

	submitted, err := s.coordinator.ConfirmSucceeded(intentID, func() error {
		shopID, err := uuid.Parse(dr.ShopID)
		if err != nil {
			return fmt.Errorf("invalid shop id on draft: %w", err)
		}
		shop, err := s.db.GetShop(shopID)
		if err != nil {
			return err
		}

		quote, err := s.QuoteDraft(dr, shop)
		if err != nil {
			return err
		}

		payload, err := dr.Assemble(newOrderRef(), *shop, quote)
		if err != nil {
			return err
		}

		orderID, err := s.db.CreateOrder(userID, payload)
		if errors.Is(err, supabase.ErrDuplicateOrder) {
			s.logger.WithField("payment_intent_id", intentID).
				Info("Order already exists for intent, treating callback as redelivery")
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.realtime.PublishShopEvent(payload.OwnerMail, "order_created",
			supabase.OrderCreatedPayload(orderID, payload.OrderRef, payload.TotalPrice)); err != nil {
			s.logger.WithError(err).Warn("Failed to publish order_created event")
		}

		s.logger.WithFields(logrus.Fields{
			"order_id":          orderID,
			"order_ref":         payload.OrderRef,
			"payment_intent_id": intentID,
		}).Info("Order created from paid draft")
		return nil
	})
	if err != nil {
		return err
	}
	if !submitted {
		return nil
	}

	if err := s.db.ClearDraft(userID); err != nil {
		// The order exists; a stale draft is an annoyance, not a loss.
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to clear draft after order")
	}
	return nil
}

// HandlePaymentFailed records the failure and notifies the customer's channel.
// The draft stays intact so checkout can be retried without re-uploading.
func (s *CheckoutService) HandlePaymentFailed(intentID, message string) {
	s.coordinator.ConfirmFailed(intentID, message)

	userID, _, err := s.db.FindDraftByIntent(intentID)
	if err != nil {
		s.logger.WithField("payment_intent_id", intentID).Warn("Payment failed for unknown intent")
		return
	}

	if err := s.realtime.PublishUserEvent(userID, "payment_failed",
		supabase.PaymentFailedPayload(intentID, message)); err != nil {
		s.logger.WithError(err).Warn("Failed to publish payment_failed event")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":           userID,
		"payment_intent_id": intentID,
		"message":           message,
	}).Info("Payment failed, draft retained for retry")
}

// newOrderRef builds a short human-readable order reference.
func newOrderRef() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
