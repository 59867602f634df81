package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/sales/invoices"
	"github.com/OmphileMokhuane/busman/internal/sales/quotations"
	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

// memoryStore mimics the transactional repository against in-memory maps.
// Mutations are buffered per "transaction" and applied only when the
// callback returns nil, mirroring commit-or-rollback behavior.
type memoryStore struct {
	quotations map[uuid.UUID]*quotations.Quotation
	invoices   map[uuid.UUID]*invoices.Invoice
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		quotations: map[uuid.UUID]*quotations.Quotation{},
		invoices:   map[uuid.UUID]*invoices.Invoice{},
	}
}

type memoryTx struct {
	store         *memoryStore
	insertedInv   []*invoices.Invoice
	statusUpdates map[uuid.UUID]quotations.Status
	statusStamps  map[uuid.UUID]time.Time
}

func (s *memoryStore) ConvertTx(_ context.Context, fn func(tx TxRepository) error) error {
	tx := &memoryTx{
		store:         s,
		statusUpdates: map[uuid.UUID]quotations.Status{},
		statusStamps:  map[uuid.UUID]time.Time{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	for _, inv := range tx.insertedInv {
		copied := *inv
		s.invoices[inv.ID] = &copied
	}
	for id, status := range tx.statusUpdates {
		s.quotations[id].Status = status
		s.quotations[id].UpdatedAt = tx.statusStamps[id]
	}
	return nil
}

func (t *memoryTx) GetQuotationForUpdate(_ context.Context, userID, quotationID uuid.UUID) (*quotations.Quotation, error) {
	q, ok := t.store.quotations[quotationID]
	if !ok || q.UserID != userID {
		return nil, shared.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (t *memoryTx) InvoiceExistsForQuotation(_ context.Context, userID, quotationID uuid.UUID) (bool, error) {
	for _, inv := range t.store.invoices {
		if inv.UserID == userID && inv.QuotationID != nil && *inv.QuotationID == quotationID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) InsertInvoice(_ context.Context, inv *invoices.Invoice) error {
	t.insertedInv = append(t.insertedInv, inv)
	return nil
}

func (t *memoryTx) SetQuotationStatus(_ context.Context, userID, quotationID uuid.UUID, status quotations.Status, updatedAt time.Time) error {
	q, ok := t.store.quotations[quotationID]
	if !ok || q.UserID != userID {
		return shared.ErrNotFound
	}
	t.statusUpdates[quotationID] = status
	t.statusStamps[quotationID] = updatedAt
	return nil
}

type sequenceAllocator struct {
	next int
}

func (a *sequenceAllocator) Allocate(_ context.Context, _ uuid.UUID, _ numbering.Kind) (string, error) {
	a.next++
	return fmt.Sprintf("INV-2026-%03d", a.next), nil
}

type fixture struct {
	svc    *Service
	store  *memoryStore
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	svc := NewService(store, &sequenceAllocator{}, slog.New(slog.DiscardHandler))
	return &fixture{svc: svc, store: store, userID: uuid.New()}
}

func (f *fixture) seedQuotation(notes string) *quotations.Quotation {
	q := &quotations.Quotation{
		ID:              uuid.New(),
		UserID:          f.userID,
		ClientID:        uuid.New(),
		QuotationNumber: "QUO-2026-007",
		Date:            time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:      time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Items: []salesshared.LineItem{
			{Description: "Pump inspection", Quantity: 2, UnitPrice: 50, Total: 100},
			{Description: "Seal kit", Quantity: 1, UnitPrice: 100, Total: 100},
		},
		Subtotal:  200,
		TaxRate:   15,
		TaxAmount: 30,
		Total:     230,
		Status:    quotations.StatusSent,
		Notes:     notes,
	}
	f.store.quotations[q.ID] = q
	return q
}

func validRequest() Request {
	return Request{Date: "2026-09-01", DueDate: "2026-09-30"}
}

func TestConvertCopiesDocument(t *testing.T) {
	f := newFixture(t)
	q := f.seedQuotation("Quoted on site")

	req := validRequest()
	req.Notes = "Converted after acceptance call"
	req.PurchaseOrderNumber = "PO-1881"
	inv, err := f.svc.Convert(context.Background(), f.userID, q.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
	assert.Equal(t, q.ClientID, inv.ClientID)
	require.NotNil(t, inv.QuotationID)
	assert.Equal(t, q.ID, *inv.QuotationID)
	assert.Equal(t, 200.0, inv.Subtotal)
	assert.Equal(t, 30.0, inv.TaxAmount)
	assert.Equal(t, 230.0, inv.Total)
	assert.Equal(t, 230.0, inv.Balance)
	assert.Equal(t, invoices.StatusDraft, inv.Status)
	assert.Equal(t, "PO-1881", inv.PurchaseOrderNumber)
	assert.Equal(t, "Quoted on site\n\nConverted after acceptance call", inv.Notes)
	assert.Len(t, inv.Items, 2)

	// The quotation is marked accepted in the same transaction.
	assert.Equal(t, quotations.StatusAccepted, f.store.quotations[q.ID].Status)
}

func TestConvertTwiceRejected(t *testing.T) {
	f := newFixture(t)
	q := f.seedQuotation("")

	_, err := f.svc.Convert(context.Background(), f.userID, q.ID, validRequest())
	require.NoError(t, err)

	_, err = f.svc.Convert(context.Background(), f.userID, q.ID, validRequest())
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Len(t, f.store.invoices, 1)
}

func TestConvertUnknownQuotation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Convert(context.Background(), f.userID, uuid.New(), validRequest())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConvertWrongOwner(t *testing.T) {
	f := newFixture(t)
	q := f.seedQuotation("")

	_, err := f.svc.Convert(context.Background(), uuid.New(), q.ID, validRequest())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.store.invoices)
	assert.Equal(t, quotations.StatusSent, f.store.quotations[q.ID].Status)
}

func TestConvertDateValidation(t *testing.T) {
	f := newFixture(t)
	q := f.seedQuotation("")

	_, err := f.svc.Convert(context.Background(), f.userID, q.ID, Request{DueDate: "2026-01-01"})
	require.Error(t, err)
	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Invoice date is required", ve.Fields["date"])

	_, err = f.svc.Convert(context.Background(), f.userID, q.ID, Request{Date: "2026-09-10", DueDate: "2026-09-01"})
	require.Error(t, err)
	ve, ok = shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Due date must be on or after invoice date", ve.Fields["dueDate"])
}

func TestConvertNotesWithoutExtra(t *testing.T) {
	f := newFixture(t)
	q := f.seedQuotation("Original notes")

	inv, err := f.svc.Convert(context.Background(), f.userID, q.ID, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Original notes", inv.Notes)
}
