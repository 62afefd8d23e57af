package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type UploadedFileInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	PageCount   *int   `json:"page_count,omitempty"`
}

type UploadResponse struct {
	Success bool             `json:"success"`
	FileID  string           `json:"file_id"`
	File    UploadedFileInfo `json:"file"`
}

type ShopsResponse struct {
	Shops []Shop `json:"shops"`
}

type ShopResponse struct {
	Shop Shop `json:"shop"`
}

type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type OrderCreatedResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

type CompleteOrderResponse struct {
	Success          bool   `json:"success"`
	CompletedOrderID string `json:"completed_order_id"`
}

type OrderExistsResponse struct {
	Exists bool `json:"exists"`
}

type RoleResponse struct {
	Role string `json:"role"`
}

type OrderView struct {
	ID           string          `json:"id"`
	OrderRef     string          `json:"order_id"`
	Shop         Shop            `json:"shop"`
	OwnerMail    string          `json:"owner_mail"`
	Files        []OrderFileLine `json:"files"`
	Instructions string          `json:"instructions"`
	Subtotal     float64         `json:"subtotal"`
	PlatformFee  float64         `json:"platform_fee"`
	TotalPrice   float64         `json:"total_price"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

type OrdersResponse struct {
	ActiveOrders    []OrderView `json:"active_orders"`
	CompletedOrders []OrderView `json:"completed_orders"`
}
