package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// FileRecord is the metadata row for an uploaded document. The blob itself
// lives in Supabase Storage at StoragePath.
type FileRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TempID      string
	Filename    string
	ContentType string
	Size        int64
	PageCount   sql.NullInt64
	StoragePath string
	StorageURL  string
	Status      string
	CreatedAt   time.Time
}
