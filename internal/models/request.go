package models

import "encoding/json"

type RegisterDraftFileRequest struct {
	TempID      string `json:"temp_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type UpdateSettingRequest struct {
	// Field is "is_black_and_white" or "is_double_sided".
	Field string `json:"field" binding:"required"`
	Value *bool  `json:"value" binding:"required"`
}

type SelectShopRequest struct {
	ShopID string `json:"shop_id" binding:"required"`
}

type InstructionsRequest struct {
	Instructions string `json:"instructions"`
}

type CreateIntentRequest struct {
	// Amount is in major currency units; the handler converts to minor units.
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

type CompleteOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	// OrderData is accepted for compatibility with older clients but the
	// server-held active row is authoritative.
	OrderData json.RawMessage `json:"order_data"`
}

type UpdateShopRequest struct {
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	Contact    string   `json:"contact"`
	Status     string   `json:"status"`
	PriceBW    *float64 `json:"price_bw"`
	PriceColor *float64 `json:"price_color"`
}
