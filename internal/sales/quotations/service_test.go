package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmphileMokhuane/busman/internal/numbering"
	"github.com/OmphileMokhuane/busman/internal/sales/clients"
	salesshared "github.com/OmphileMokhuane/busman/internal/sales/shared"
	"github.com/OmphileMokhuane/busman/internal/shared"
)

type memoryRepo struct {
	rows map[uuid.UUID]*Quotation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[uuid.UUID]*Quotation{}}
}

func (m *memoryRepo) Create(_ context.Context, q *Quotation) error {
	copied := *q
	m.rows[q.ID] = &copied
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*Quotation, error) {
	q, ok := m.rows[id]
	if !ok || q.UserID != userID {
		return nil, shared.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, userID uuid.UUID) ([]Quotation, error) {
	var list []Quotation
	for _, q := range m.rows {
		if q.UserID == userID {
			list = append(list, *q)
		}
	}
	return list, nil
}

func (m *memoryRepo) ListByClient(_ context.Context, userID, clientID uuid.UUID) ([]Quotation, error) {
	var list []Quotation
	for _, q := range m.rows {
		if q.UserID == userID && q.ClientID == clientID {
			list = append(list, *q)
		}
	}
	return list, nil
}

func (m *memoryRepo) Update(_ context.Context, q *Quotation) error {
	existing, ok := m.rows[q.ID]
	if !ok || existing.UserID != q.UserID {
		return shared.ErrNotFound
	}
	copied := *q
	m.rows[q.ID] = &copied
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	q, ok := m.rows[id]
	if !ok || q.UserID != userID {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryRepo) ExistsForClient(_ context.Context, userID, clientID uuid.UUID) (bool, error) {
	for _, q := range m.rows {
		if q.UserID == userID && q.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}

type clientDirectory struct {
	known map[uuid.UUID]uuid.UUID // client id -> owner
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

func (a *sequenceAllocator) Allocate(_ context.Context, _ uuid.UUID, kind numbering.Kind) (string, error) {
	a.next++
	prefix := "QUO"
	if kind == numbering.KindInvoice {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-2026-%03d", prefix, a.next), nil
}

type staticInvoiceChecker struct {
	converted bool
}

func (c staticInvoiceChecker) ExistsForQuotation(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return c.converted, nil
}

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	userID   uuid.UUID
	clientID uuid.UUID
}

func newFixture(t *testing.T, checker InvoiceChecker) *fixture {
	t.Helper()
	repo := newMemoryRepo()
	userID := uuid.New()
	clientID := uuid.New()
	dir := clientDirectory{known: map[uuid.UUID]uuid.UUID{clientID: userID}}
	svc := NewService(repo, dir, &sequenceAllocator{}, checker, slog.New(slog.DiscardHandler))
	return &fixture{svc: svc, repo: repo, userID: userID, clientID: clientID}
}

func validForm(clientID uuid.UUID) Form {
	return Form{
		ClientID:   clientID.String(),
		Date:       "2026-08-01",
		ValidUntil: "2026-08-31",
		Items: []salesshared.LineItem{
			{Description: "Pump inspection", Quantity: 2, UnitPrice: 50},
			{Description: "Seal kit", Quantity: 1, UnitPrice: 100},
		},
		TaxRate: 15,
	}
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	q, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)

	assert.Equal(t, "QUO-2026-001", q.QuotationNumber)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, 200.0, q.Subtotal)
	assert.Equal(t, 30.0, q.TaxAmount)
	assert.Equal(t, 230.0, q.Total)
	assert.Equal(t, 100.0, q.Items[0].Total)
}

func TestCreateUnknownClient(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	form := validForm(uuid.New())
	_, err := f.svc.Create(context.Background(), f.userID, form)
	require.Error(t, err)

	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Please select a client", ve.Fields["clientId"])
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	form := Form{
		ClientID:   "",
		Date:       "",
		ValidUntil: "2026-07-31",
		Items:      []salesshared.LineItem{{Description: " ", Quantity: 0, UnitPrice: -1}},
		TaxRate:    120,
	}
	_, err := f.svc.Create(context.Background(), f.userID, form)
	require.Error(t, err)

	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Please select a client", ve.Fields["clientId"])
	assert.Equal(t, "Quotation date is required", ve.Fields["date"])
	assert.Equal(t, "Description is required", ve.Fields["item_0_description"])
	assert.Equal(t, "Quantity must be greater than 0", ve.Fields["item_0_quantity"])
	assert.Equal(t, "Unit price must be greater than 0", ve.Fields["item_0_unitPrice"])
	assert.Equal(t, "Tax rate must be between 0 and 100", ve.Fields["taxRate"])
}

func TestValidUntilMayEqualDate(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	form := validForm(f.clientID)
	form.ValidUntil = form.Date
	_, err := f.svc.Create(context.Background(), f.userID, form)
	assert.NoError(t, err)
}

func TestValidUntilBeforeDateRejected(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	form := validForm(f.clientID)
	form.ValidUntil = "2026-07-31"
	_, err := f.svc.Create(context.Background(), f.userID, form)
	require.Error(t, err)

	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "validUntil")
}

func TestUpdatePreservesNumberAndCreatedAt(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	q, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)

	form := validForm(f.clientID)
	form.Items = []salesshared.LineItem{{Description: "Impeller", Quantity: 1, UnitPrice: 300}}
	updated, err := f.svc.Update(context.Background(), f.userID, q.ID, form)
	require.NoError(t, err)

	assert.Equal(t, q.QuotationNumber, updated.QuotationNumber)
	assert.True(t, updated.CreatedAt.Equal(q.CreatedAt))
	assert.Equal(t, 300.0, updated.Subtotal)
	assert.Equal(t, 345.0, updated.Total)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	q, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)

	updated, err := f.svc.SetStatus(context.Background(), f.userID, q.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)

	_, err = f.svc.SetStatus(context.Background(), f.userID, q.ID, Status("archived"))
	require.Error(t, err)
	ve, ok := shared.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid status", ve.Fields["status"])
}

func TestDeleteConvertedBlocked(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{converted: true})

	q, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.userID, q.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, "Cannot delete quotation that has been converted to an invoice", err.Error())
}

func TestDeleteUnconverted(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	q, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), f.userID, q.ID))
	assert.Empty(t, f.repo.rows)
}

func TestWrongOwnerCannotSee(t *testing.T) {
	f := newFixture(t, staticInvoiceChecker{})

	q, err := f.svc.Create(context.Background(), f.userID, validForm(f.clientID))
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), uuid.New(), q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
