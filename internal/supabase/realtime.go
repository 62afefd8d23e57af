package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Note: Supabase Go client doesn't have direct Realtime publish.
	// Database updates trigger Realtime automatically; this is a placeholder
	// for explicit event publishing via the Realtime REST API if needed.
	return nil
}

// PublishShopEvent notifies a shop owner's dashboard channel.
func (r *RealtimeClient) PublishShopEvent(ownerMail string, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("shop:%s", ownerMail)
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func OrderCreatedPayload(orderID uuid.UUID, orderRef string, total float64) map[string]interface{} {
	return map[string]interface{}{
		"order_id":    orderID.String(),
		"order_ref":   orderRef,
		"total_price": total,
		"status":      "active",
	}
}

func OrderCompletedPayload(completedOrderID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"completed_order_id": completedOrderID.String(),
		"status":             "completed",
	}
}

func PaymentFailedPayload(intentID, message string) map[string]interface{} {
	return map[string]interface{}{
		"payment_intent_id": intentID,
		"status":            "failed",
		"error":             message,
	}
}

func UploadCompletedPayload(fileID uuid.UUID, filename string) map[string]interface{} {
	return map[string]interface{}{
		"file_id":  fileID.String(),
		"filename": filename,
		"status":   "completed",
	}
}
