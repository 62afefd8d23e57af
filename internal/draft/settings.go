package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound means no settings entry matched either identifier.
	// On resolve this is a data-integrity warning, not a fatal error.
	ErrEntryNotFound = errors.New("settings entry not found")
	// ErrAmbiguousEntry means a lookup matched more than one entry, which a
	// well-formed store can never produce.
	ErrAmbiguousEntry = errors.New("settings entry matched more than one record")
	// ErrUnknownField is returned for a toggle field the store does not track.
	ErrUnknownField = errors.New("unknown settings field")
)

// Toggle field names accepted by UpdateToggle.
const (
	FieldBlackAndWhite = "is_black_and_white"
	FieldDoubleSided   = "is_double_sided"
)

// Entry is the print settings for one uploaded file. It is created under a
// client-generated temporary id and gains the persisted server id in place
// once the upload completes; during that window lookups must try both keys.
type Entry struct {
	TempID          string `json:"temp_id"`
	ServerID        string `json:"server_id,omitempty"`
	IsBlackAndWhite bool   `json:"is_black_and_white"`
	IsDoubleSided   bool   `json:"is_double_sided"`
	PageCount       int    `json:"page_count,omitempty"`
}

// Matches reports whether the entry is addressed by fileID via either key.
func (e *Entry) Matches(fileID string) bool {
	return e.TempID == fileID || (e.ServerID != "" && e.ServerID == fileID)
}

// Settings holds exactly one entry per uploaded file. Orphaned temp entries
// from abandoned uploads are tolerated; they are skipped at pricing time.
type Settings []Entry

// CreateEntry inserts an entry for a new upload with the default settings:
// color, double-sided, page count unknown. Creating an entry that already
// exists is a no-op, preserving the one-entry-per-file invariant.
func (s *Settings) CreateEntry(tempID string) {
	for i := range *s {
		if (*s)[i].TempID == tempID {
			return
		}
	}
	*s = append(*s, Entry{
		TempID:          tempID,
		IsBlackAndWhite: false,
		IsDoubleSided:   true,
	})
}

// RemoveEntry deletes the entry addressed by fileID through either key.
// Removing an absent entry is a no-op.
func (s *Settings) RemoveEntry(fileID string) {
	for i := range *s {
		if (*s)[i].Matches(fileID) {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}

// Resolve attaches the persisted identifier and page count to the entry
// created under tempID. Resolving twice with the same server id is
// idempotent. A missing entry returns ErrEntryNotFound so the caller can log
// it; the store itself is left untouched.
func (s Settings) Resolve(tempID, serverID string, pageCount int) error {
	for i := range s {
		if s[i].TempID != tempID {
			continue
		}
		s[i].ServerID = serverID
		if pageCount > 0 {
			s[i].PageCount = pageCount
		}
		return nil
	}
	return fmt.Errorf("resolve %q: %w", tempID, ErrEntryNotFound)
}

// Lookup returns the unique entry addressed by fileID through either key.
// More than one match indicates a corrupted store and is surfaced as an
// error rather than resolved arbitrarily.
func (s Settings) Lookup(fileID string) (*Entry, error) {
	var found *Entry
	for i := range s {
		if !s[i].Matches(fileID) {
			continue
		}
		if found != nil && found != &s[i] {
			return nil, fmt.Errorf("lookup %q: %w", fileID, ErrAmbiguousEntry)
		}
		found = &s[i]
	}
	if found == nil {
		return nil, fmt.Errorf("lookup %q: %w", fileID, ErrEntryNotFound)
	}
	return found, nil
}

// UpdateToggle flips one boolean field on the entry addressed by fileID.
func (s Settings) UpdateToggle(fileID, field string, value bool) error {
	entry, err := s.Lookup(fileID)
	if err != nil {
		return err
	}
	switch field {
	case FieldBlackAndWhite:
		entry.IsBlackAndWhite = value
	case FieldDoubleSided:
		entry.IsDoubleSided = value
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}
