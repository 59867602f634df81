package invoices

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
	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

type memoryRepo struct {
	rows map[uuid.UUID]*Invoice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[uuid.UUID]*Invoice{}}
}

func (m *memoryRepo) Create(_ context.Context, inv *Invoice) error {
	copied := *inv
	m.rows[inv.ID] = &copied
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.rows[id]
	if !ok || inv.UserID != userID {
		return nil, shared.ErrNotFound
	}
	copied := *inv
	copied.PaymentHistory = append([]PaymentEntry(nil), inv.PaymentHistory...)
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, userID uuid.UUID) ([]Invoice, error) {
	var list []Invoice
	for _, inv := range m.rows {
		if inv.UserID == userID {
			list = append(list, *inv)
		}
	}
	return list, nil
}

func (m *memoryRepo) ListByClient(_ context.Context, userID, clientID uuid.UUID) ([]Invoice, error) {
	var list []Invoice
	for _, inv := range m.rows {
		if inv.UserID == userID && inv.ClientID == clientID {
			list = append(list, *inv)
		}
	}
	return list, nil
}

func (m *memoryRepo) Update(_ context.Context, inv *Invoice) error {
	existing, ok := m.rows[inv.ID]
	if !ok || existing.UserID != inv.UserID {
		return shared.ErrNotFound
	}
	copied := *inv
	m.rows[inv.ID] = &copied
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	inv, ok := m.rows[id]
	if !ok || inv.UserID != userID {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryRepo) AppendPayment(_ context.Context, inv *Invoice, entry PaymentEntry) error {
	existing, ok := m.rows[inv.ID]
	if !ok || existing.UserID != inv.UserID {
		return shared.ErrNotFound
	}
	existing.AmountPaid = inv.AmountPaid
	existing.Balance = inv.Balance
	existing.Status = inv.Status
	existing.PaymentMethod = inv.PaymentMethod
	existing.PaymentDate = inv.PaymentDate
	existing.PaymentHistory = append(existing.PaymentHistory, entry)
	existing.UpdatedAt = inv.UpdatedAt
	return nil
}

func (m *memoryRepo) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range m.rows {
		if (inv.Status == StatusSent || inv.Status == StatusPartial) && inv.DueDate.Before(asOf) {
			inv.Status = StatusOverdue
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) ExistsForClient(_ context.Context, userID, clientID uuid.UUID) (bool, error) {
	for _, inv := range m.rows {
		if inv.UserID == userID && inv.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) ExistsForQuotation(_ context.Context, userID, quotationID uuid.UUID) (bool, error) {
	for _, inv := range m.rows {
		if inv.UserID == userID && inv.QuotationID != nil && *inv.QuotationID == quotationID {
			return true, nil
		}
	}
	return false, nil
}

type clientDirectory struct {
	known map[uuid.UUID]uuid.UUID
}

func (d clientDirectory) Get(_ context.Context, userID, id uuid.UUID) (*clients.Client, error) {
	owner, ok := d.known[id]
	if !ok || owner != userID {
		return nil, shared.ErrNotFound
	}
	return &clients.Client{ID: id, UserID: userID}, nil
}

type sequenceAllocator struct {
	next int
}

func (a *sequenceAllocator) Allocate(_ context.Context, _ uuid.UUID, _ numbering.Kind) (string, error) {
	a.next++
	return fmt.Sprintf("INV-2026-%03d", a.next), nil
}

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	userID   uuid.UUID
	clientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	userID := uuid.New()
	clientID := uuid.New()
	dir := clientDirectory{known: map[uuid.UUID]uuid.UUID{clientID: userID}}
	svc := NewService(repo, dir, &sequenceAllocator{}, slog.New(slog.DiscardHandler))
	return &fixture{svc: svc, repo: repo, userID: userID, clientID: clientID}
}

func validForm(clientID uuid.UUID) Form {
	return Form{
		ClientID: clientID.String(),
		Date:     "2026-08-01",
		DueDate:  "2026-08-31",
		Items: []salesshared.LineItem{
			{Description: "Pump repair", Quantity: 1, UnitPrice: 200},
		},
		TaxRate: 15,
	}
}

func payment(amount float64) PaymentForm {
	return PaymentForm{
		Amount:        amount,
		PaymentMethod: "eft",
		PaymentDate:   "2026-08-15",
	}
}

func (f *fixture) createInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)
	return inv
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)

	inv := f.createInvoice(t)
	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, 200.0, inv.Subtotal)
	assert.Equal(t, 30.0, inv.TaxAmount)
	assert.Equal(t, 230.0, inv.Total)
	assert.Equal(t, 0.0, inv.AmountPaid)
	assert.Equal(t, 230.0, inv.Balance)
	assert.Empty(t, inv.PaymentHistory)
}

func TestDueDateBeforeDateRejected(t *testing.T) {
	f := newFixture(t)

	form := validForm(f.clientID)
	form.DueDate = "2026-07-31"
	_, err := f.svc.Create(context.Background(), f.userID, form)
	require.Error(t, err)

	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Due date must be on or after invoice date", ve.Fields["dueDate"])
}

func TestDueDateMayEqualDate(t *testing.T) {
	f := newFixture(t)

	form := validForm(f.clientID)
	form.DueDate = form.Date
	_, err := f.svc.Create(context.Background(), f.userID, form)
	assert.NoError(t, err)
}

func TestRecordFullPayment(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	paid, err := f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(230))
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, paid.Status)
	assert.Equal(t, 230.0, paid.AmountPaid)
	assert.Equal(t, 0.0, paid.Balance)
	require.Len(t, paid.PaymentHistory, 1)
	assert.Equal(t, "eft", paid.PaymentHistory[0].PaymentMethod)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, "eft", *paid.PaymentMethod)
}

func TestRecordPartialThenFinalPayment(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	partial, err := f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(100))
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, partial.Status)
	assert.Equal(t, 130.0, partial.Balance)

	final, err := f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(130))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, final.Status)
	assert.Equal(t, 0.0, final.Balance)
	assert.Len(t, final.PaymentHistory, 2)
}

func TestOverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(100))
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(131))
	require.Error(t, err)
	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Payment amount exceeds invoice total", ve.Fields["amount"])

	// The failed attempt must not touch the ledger.
	reloaded, err := f.svc.Get(context.Background(), f.userID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, reloaded.AmountPaid)
	assert.Equal(t, StatusPartial, reloaded.Status)
	assert.Len(t, reloaded.PaymentHistory, 1)
}

func TestPaymentValidation(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.RecordPayment(context.Background(), f.userID, inv.ID, PaymentForm{Amount: 0})
	require.Error(t, err)

	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Please enter a valid payment amount", ve.Fields["amount"])
	assert.Equal(t, "Please select a payment method", ve.Fields["paymentMethod"])
	assert.Equal(t, "Payment date is required", ve.Fields["paymentDate"])
}

func TestPaymentOnCancelledInvoiceRejected(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.SetStatus(context.Background(), f.userID, inv.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(50))
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestSetStatusCannotForcePaid(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.SetStatus(context.Background(), f.userID, inv.ID, StatusPaid)
	require.Error(t, err)
	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid status", ve.Fields["status"])
}

func TestUpdateCannotDropBelowAmountPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.RecordPayment(context.Background(), f.userID, inv.ID, payment(230))
	require.NoError(t, err)

	form := validForm(f.clientID)
	form.Items = []salesshared.LineItem{{Description: "Pump repair", Quantity: 1, UnitPrice: 100}}
	_, err = f.svc.Update(context.Background(), f.userID, inv.ID, form)
	require.Error(t, err)
	_, ok := shared.AsValidation(err)
	assert.True(t, ok)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)

	due := f.createInvoice(t)
	_, err := f.svc.SetStatus(context.Background(), f.userID, due.ID, StatusSent)
	require.NoError(t, err)

	draft := f.createInvoice(t)
	_ = draft

	// Not yet due as of the due date itself, even when the sweep runs
	// mid-morning rather than at midnight.
	n, err := f.svc.MarkOverdue(context.Background(), time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = f.svc.MarkOverdue(context.Background(), time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "invoice due today must not be overdue")

	n, err = f.svc.MarkOverdue(context.Background(), time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reloaded, err := f.svc.Get(context.Background(), f.userID, due.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, reloaded.Status)
}
