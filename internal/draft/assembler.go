package draft

import (
	"errors"
	"fmt"

	"pexl-backend/internal/models"
	"pexl-backend/internal/pricing"
)

// ErrEmptyDraft is returned when assembly is attempted with no files.
var ErrEmptyDraft = errors.New("draft has no files")

// IncompleteError reports the file that blocks order assembly.
type IncompleteError struct {
	File   string
	Reason string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("draft incomplete: file %q %s", e.File, e.Reason)
}

// Assemble builds the order payload sent to the lifecycle store. Every file
// must be fully uploaded with a resolved settings entry; transient state
// (temp ids, progress) is stripped and only persisted identifiers survive.
func (d *Draft) Assemble(orderRef string, shop models.Shop, quote pricing.Quote) (*models.OrderPayload, error) {
	if len(d.Files) == 0 {
		return nil, ErrEmptyDraft
	}

	lines := make([]models.OrderFileLine, 0, len(d.Files))
	for _, f := range d.Files {
		if f.Status != StatusCompleted {
			return nil, &IncompleteError{File: f.Name, Reason: "is not uploaded"}
		}
		if f.ServerID == "" {
			return nil, &IncompleteError{File: f.Name, Reason: "has no persisted identifier"}
		}
		entry, err := d.Settings.Lookup(f.ServerID)
		if err != nil {
			return nil, &IncompleteError{File: f.Name, Reason: "has no settings entry"}
		}
		pages := entry.PageCount
		if pages <= 0 {
			pages = f.PageCount
		}
		if pages <= 0 {
			pages = 1
		}
		lines = append(lines, models.OrderFileLine{
			ID:              f.ServerID,
			Name:            f.Name,
			PageCount:       pages,
			IsBlackAndWhite: entry.IsBlackAndWhite,
			IsDoubleSided:   entry.IsDoubleSided,
		})
	}

	return &models.OrderPayload{
		OrderRef:        orderRef,
		Shop:            shop,
		OwnerMail:       shop.OwnerMail,
		Files:           lines,
		Instructions:    d.Instructions,
		Subtotal:        quote.Subtotal,
		PlatformFee:     quote.PlatformFee,
		TotalPrice:      quote.Total,
		PaymentMethod:   "card",
		PaymentIntentID: d.PaymentIntentID,
	}, nil
}
