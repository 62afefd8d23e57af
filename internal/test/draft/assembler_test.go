package draft_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
	"pexl-backend/internal/pricing"
)

func testShop() models.Shop {
	return models.Shop{
		ID:         uuid.New(),
		Name:       "Campus Prints",
		OwnerMail:  "owner@example.com",
		PriceBW:    2,
		PriceColor: 5,
	}
}

func completeDraft(t *testing.T) *draft.Draft {
	t.Helper()
	var d draft.Draft
	d.RegisterFile("tmp-1", "essay.pdf", 2048, "application/pdf")
	require.NoError(t, d.CompleteUpload("tmp-1", "srv-1", 5))
	d.Instructions = "spiral binding"
	d.PaymentIntentID = "pi_123"
	return &d
}

func TestAssemble(t *testing.T) {
	d := completeDraft(t)
	shop := testShop()

	payload, err := d.Assemble("ORD-ABC123", shop, pricing.Quote{Subtotal: 6, PlatformFee: 44, Total: 50})
	require.NoError(t, err)

	assert.Equal(t, "ORD-ABC123", payload.OrderRef)
	assert.Equal(t, shop.OwnerMail, payload.OwnerMail)
	assert.Equal(t, "spiral binding", payload.Instructions)
	assert.Equal(t, "card", payload.PaymentMethod)
	assert.Equal(t, "pi_123", payload.PaymentIntentID)
	assert.Equal(t, 50.0, payload.TotalPrice)

	require.Len(t, payload.Files, 1)
	assert.Equal(t, "srv-1", payload.Files[0].ID, "only persisted identifiers may appear in orders")
	assert.Equal(t, 5, payload.Files[0].PageCount)
}

func TestAssemble_EmptyDraft(t *testing.T) {
	var d draft.Draft
	_, err := d.Assemble("ORD-1", testShop(), pricing.Quote{})
	assert.ErrorIs(t, err, draft.ErrEmptyDraft)
}

func TestAssemble_UploadStillInFlight(t *testing.T) {
	var d draft.Draft
	d.RegisterFile("tmp-1", "essay.pdf", 2048, "application/pdf")

	_, err := d.Assemble("ORD-1", testShop(), pricing.Quote{})
	var incomplete *draft.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "essay.pdf", incomplete.File)
}

func TestAssemble_MissingSettingsEntry(t *testing.T) {
	var d draft.Draft
	_ = d.CompleteUpload("tmp-ghost", "srv-9", 3)

	_, err := d.Assemble("ORD-1", testShop(), pricing.Quote{})
	var incomplete *draft.IncompleteError
	assert.ErrorAs(t, err, &incomplete)
}

func TestAssemble_UnknownPageCountDefaultsToOne(t *testing.T) {
	var d draft.Draft
	d.RegisterFile("tmp-1", "scan.jpg", 1024, "image/jpeg")
	require.NoError(t, d.CompleteUpload("tmp-1", "srv-1", 0))

	payload, err := d.Assemble("ORD-1", testShop(), pricing.Quote{})
	require.NoError(t, err)
	require.Len(t, payload.Files, 1)
	assert.Equal(t, 1, payload.Files[0].PageCount)
}
