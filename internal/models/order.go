package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order is a row in active_orders or completed_orders. Shop and Files are
// stored as JSON snapshots so a later rate change cannot rewrite history.
type Order struct {
	ID              uuid.UUID
	OrderRef        string
	Shop            json.RawMessage
	OwnerMail       string
	Files           json.RawMessage
	Instructions    string
	Subtotal        float64
	PlatformFee     float64
	TotalPrice      float64
	PaymentIntentID sql.NullString
	Status          string
	CreatedAt       time.Time
	CompletedAt     sql.NullTime
}

// OrderFileLine is one file inside a persisted order. ID is always the
// persisted file identifier; temporary upload ids must not leak in here.
type OrderFileLine struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PageCount       int    `json:"page_count"`
	IsBlackAndWhite bool   `json:"is_black_and_white"`
	IsDoubleSided   bool   `json:"is_double_sided"`
}

// OrderPayload is an assembled draft ready for the lifecycle store.
type OrderPayload struct {
	OrderRef        string          `json:"order_id"`
	Shop            Shop            `json:"shop"`
	OwnerMail       string          `json:"owner_mail"`
	Files           []OrderFileLine `json:"files"`
	Instructions    string          `json:"instructions"`
	Subtotal        float64         `json:"subtotal"`
	PlatformFee     float64         `json:"platform_fee"`
	TotalPrice      float64         `json:"total_price"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentIntentID string          `json:"-"`
}
