package models

import "github.com/google/uuid"

// Shop is a stationery shop row. Read-only for customers; the owning
// account may update status and rates.
type Shop struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Contact    string    `json:"contact"`
	Status     string    `json:"status"` // online | offline
	PriceBW    float64   `json:"price_bw"`
	PriceColor float64   `json:"price_color"`
	OwnerMail  string    `json:"owner_mail"`
}
