// Package draft holds the server-side draft order: the file descriptors,
// per-file print settings and shop selection a customer builds up before
// checkout. The draft is persisted per user so every page of the flow reads
// the same state instead of re-parsing a client-held cart.
package draft

import (
	"pexl-backend/internal/pricing"
)

// File upload states.
const (
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// File is the descriptor for one upload. It is created under a temporary id
// when the upload starts; ServerID and PageCount arrive once server-side
// processing completes. Descriptors are never removed, only marked errored.
type File struct {
	TempID      string `json:"temp_id"`
	ServerID    string `json:"server_id,omitempty"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	PageCount   int    `json:"page_count,omitempty"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
}

// Draft is one customer's in-progress order.
type Draft struct {
	Files           []File   `json:"files"`
	Settings        Settings `json:"settings"`
	ShopID          string   `json:"shop_id,omitempty"`
	Instructions    string   `json:"instructions,omitempty"`
	PaymentIntentID string   `json:"payment_intent_id,omitempty"`
}

// RegisterFile records a new upload and creates its settings entry.
// Registering the same temp id twice is a no-op.
func (d *Draft) RegisterFile(tempID, name string, size int64, contentType string) {
	for i := range d.Files {
		if d.Files[i].TempID == tempID {
			return
		}
	}
	d.Files = append(d.Files, File{
		TempID:      tempID,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Status:      StatusUploading,
	})
	d.Settings.CreateEntry(tempID)
}

// CompleteUpload attaches the persisted identifier and page count to the
// descriptor registered under tempID and resolves its settings entry.
// A missing settings entry is returned as ErrEntryNotFound so the caller can
// log a data-integrity warning; the upload itself still counts as complete.
func (d *Draft) CompleteUpload(tempID, serverID string, pageCount int) error {
	found := false
	for i := range d.Files {
		if d.Files[i].TempID != tempID {
			continue
		}
		d.Files[i].ServerID = serverID
		if pageCount > 0 {
			d.Files[i].PageCount = pageCount
		}
		d.Files[i].Status = StatusCompleted
		d.Files[i].Progress = 100
		found = true
		break
	}
	if !found {
		d.Files = append(d.Files, File{
			TempID:    tempID,
			ServerID:  serverID,
			PageCount: pageCount,
			Status:    StatusCompleted,
			Progress:  100,
		})
	}
	return d.Settings.Resolve(tempID, serverID, pageCount)
}

// RemoveFile drops a descriptor and its settings entry. The id may be either
// the temporary or the persisted identifier.
func (d *Draft) RemoveFile(id string) {
	for i := range d.Files {
		if d.Files[i].TempID != id && d.Files[i].ServerID != id {
			continue
		}
		d.Files = append(d.Files[:i], d.Files[i+1:]...)
		break
	}
	d.Settings.RemoveEntry(id)
}

// MarkError flags an upload as failed without removing the descriptor.
func (d *Draft) MarkError(tempID string) {
	for i := range d.Files {
		if d.Files[i].TempID == tempID {
			d.Files[i].Status = StatusError
			return
		}
	}
}

// PricingItems maps the draft's files to pricing inputs. Files without a
// usable settings entry are skipped and contribute nothing to the subtotal;
// their names are returned so the caller can log them.
func (d *Draft) PricingItems() ([]pricing.Item, []string) {
	items := make([]pricing.Item, 0, len(d.Files))
	var skipped []string
	for _, f := range d.Files {
		id := f.TempID
		if f.ServerID != "" {
			id = f.ServerID
		}
		entry, err := d.Settings.Lookup(id)
		if err != nil {
			skipped = append(skipped, f.Name)
			continue
		}
		pages := entry.PageCount
		if pages <= 0 {
			pages = f.PageCount
		}
		items = append(items, pricing.Item{
			PageCount:     pages,
			BlackAndWhite: entry.IsBlackAndWhite,
			DoubleSided:   entry.IsDoubleSided,
		})
	}
	return items, skipped
}
