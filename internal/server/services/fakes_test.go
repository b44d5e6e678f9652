package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/server/misoca"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/banks"
	"github.com/akihokurino/works-server/internal/server/repositories/invoices"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
	"github.com/akihokurino/works-server/internal/server/repositories/senders"
	"github.com/akihokurino/works-server/internal/server/repositories/suppliers"
	"github.com/akihokurino/works-server/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// remoteInvoice decodes a payload the way the Misoca client would.
func remoteInvoice(t *testing.T, id, updatedAt string, total string) misoca.Invoice {
	t.Helper()
	raw := fmt.Sprintf(`{
		"id": %q,
		"issue_date": "2024-05-01",
		"payment_due_on": "2024-05-31",
		"invoice_number": "No-%s",
		"payment_status": 0,
		"invoice_status": 1,
		"recipient_name": "ACME",
		"subject": "May",
		"body": {"total_amount": %q, "tax": "10"},
		"created_at": "2024-05-01T00:00:00Z",
		"updated_at": %q
	}`, id, id, total, updatedAt)
	var inv misoca.Invoice
	require.NoError(t, json.Unmarshal([]byte(raw), &inv))
	return inv
}

func contact(t *testing.T, id, groupID, name string) misoca.Contact {
	t.Helper()
	var c misoca.Contact
	raw := fmt.Sprintf(`{"id": %s, "contact_group_id": %s, "recipient_name": %q}`, id, groupID, name)
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return c
}

// --- in-memory store behind the repository interfaces ---

type memStore struct {
	mu        sync.Mutex
	users     map[string]models.User
	suppliers map[string]models.Supplier
	invoices  map[string]models.Invoice
	senders   map[string]models.Sender
	banks     map[string]models.Bank

	writes []string

	userUpdateErr    error
	lockErr          error
	invoiceGetErr    map[string]error
	invoiceInsertErr error
	deleteInvErr     error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]models.User{},
		suppliers:     map[string]models.Supplier{},
		invoices:      map[string]models.Invoice{},
		senders:       map[string]models.Sender{},
		banks:         map[string]models.Bank{},
		invoiceGetErr: map[string]error{},
	}
}

func (s *memStore) record(format string, args ...any) {
	s.writes = append(s.writes, fmt.Sprintf(format, args...))
}

func (s *memStore) invoice(id string) (models.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	return inv, ok
}

func (s *memStore) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

type fakeManager struct{ s *memStore }

var _ repomanager.RepositoryManager = fakeManager{}

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository              { return fakeUsers{m.s} }
func (m fakeManager) Suppliers(dbx.DBTX) suppliers.Repository      { return fakeSuppliers{m.s} }
func (m fakeManager) Invoices(dbx.DBTX) invoices.Repository        { return fakeInvoices{m.s} }
func (m fakeManager) Senders(dbx.DBTX) senders.Repository          { return fakeSenders{m.s} }
func (m fakeManager) Banks(dbx.DBTX) banks.Repository              { return fakeBanks{m.s} }

// fakeSenders and fakeBanks keep at most one row per user, keyed by user id.
type fakeSenders struct{ s *memStore }

func (f fakeSenders) GetLatestByUser(_ context.Context, userID string) (*models.Sender, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.senders[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

type fakeBanks struct{ s *memStore }

func (f fakeBanks) GetLatestByUser(_ context.Context, userID string) (*models.Bank, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.banks[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

type fakeUsers struct{ s *memStore }

func (f fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f fakeUsers) List(context.Context) ([]*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, u := range f.s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) Create(_ context.Context, u *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[u.ID]; ok {
		return fmt.Errorf("db error: duplicate key %s", u.ID)
	}
	f.s.record("users.Create:%s", u.ID)
	f.s.users[u.ID] = *u
	return nil
}

func (f fakeUsers) Update(_ context.Context, u *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.userUpdateErr != nil {
		return f.s.userUpdateErr
	}
	if _, ok := f.s.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	f.s.record("users.Update:%s", u.ID)
	f.s.users[u.ID] = *u
	return nil
}

type fakeSuppliers struct{ s *memStore }

func (f fakeSuppliers) Get(_ context.Context, id string) (*models.Supplier, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sp, ok := f.s.suppliers[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &sp, nil
}

func (f fakeSuppliers) LockByID(ctx context.Context, id string) (*models.Supplier, error) {
	if f.s.lockErr != nil {
		return nil, f.s.lockErr
	}
	return f.Get(ctx, id)
}

func (f fakeSuppliers) ListByUser(_ context.Context, userID string) ([]*models.Supplier, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Supplier
	for _, sp := range f.s.suppliers {
		if sp.UserID == userID {
			sp := sp
			out = append(out, &sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeSuppliers) Insert(_ context.Context, sp *models.Supplier) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.record("suppliers.Insert:%s", sp.ID)
	f.s.suppliers[sp.ID] = *sp
	return nil
}

func (f fakeSuppliers) Update(_ context.Context, sp *models.Supplier) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.suppliers[sp.ID]; !ok {
		return common.ErrorNotFound
	}
	f.s.record("suppliers.Update:%s", sp.ID)
	f.s.suppliers[sp.ID] = *sp
	return nil
}

func (f fakeSuppliers) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.suppliers[id]; !ok {
		return common.ErrorNotFound
	}
	f.s.record("suppliers.Delete:%s", id)
	delete(f.s.suppliers, id)
	return nil
}

type fakeInvoices struct{ s *memStore }

func (f fakeInvoices) Get(_ context.Context, id string) (*models.Invoice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.invoiceGetErr[id]; err != nil {
		return nil, err
	}
	inv, ok := f.s.invoices[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &inv, nil
}

func (f fakeInvoices) Insert(_ context.Context, inv *models.Invoice) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.invoiceInsertErr != nil {
		return f.s.invoiceInsertErr
	}
	f.s.record("invoices.Insert:%s", inv.ID)
	f.s.invoices[inv.ID] = *inv
	return nil
}

func (f fakeInvoices) Update(_ context.Context, inv *models.Invoice) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.invoices[inv.ID]
	if !ok {
		return common.ErrorNotFound
	}
	f.s.record("invoices.Update:%s", inv.ID)
	updated := *inv
	updated.SupplierID = stored.SupplierID
	updated.CreatedAt = stored.CreatedAt
	f.s.invoices[inv.ID] = updated
	return nil
}

func (f fakeInvoices) UpdatePDFPath(_ context.Context, id string, path string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inv, ok := f.s.invoices[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.s.record("invoices.UpdatePDFPath:%s", id)
	inv.PDFPath = &path
	f.s.invoices[id] = inv
	return nil
}

func (f fakeInvoices) DeleteBySupplier(_ context.Context, supplierID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.deleteInvErr != nil {
		return f.s.deleteInvErr
	}
	f.s.record("invoices.DeleteBySupplier:%s", supplierID)
	for id, inv := range f.s.invoices {
		if inv.SupplierID == supplierID {
			delete(f.s.invoices, id)
		}
	}
	return nil
}

func (f fakeInvoices) bySupplier(supplierID string) []*models.Invoice {
	var out []*models.Invoice
	for _, inv := range f.s.invoices {
		if inv.SupplierID == supplierID {
			inv := inv
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func page[T any](all []T, p models.Pager) []T {
	start := p.Offset()
	if start >= len(all) {
		return nil
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (f fakeInvoices) ListBySupplier(_ context.Context, supplierID string, p models.Pager) ([]*models.Invoice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return page(f.bySupplier(supplierID), p), nil
}

func (f fakeInvoices) CountBySupplier(_ context.Context, supplierID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return len(f.bySupplier(supplierID)), nil
}

func (f fakeInvoices) byUser(userID string) []*models.InvoiceHistory {
	var out []*models.InvoiceHistory
	for _, inv := range f.s.invoices {
		sp, ok := f.s.suppliers[inv.SupplierID]
		if !ok || sp.UserID != userID {
			continue
		}
		inv := inv
		out = append(out, &models.InvoiceHistory{Invoice: &inv, Supplier: &sp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Invoice.ID > out[j].Invoice.ID })
	return out
}

func (f fakeInvoices) ListByUser(_ context.Context, userID string, p models.Pager) ([]*models.InvoiceHistory, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return page(f.byUser(userID), p), nil
}

func (f fakeInvoices) CountByUser(_ context.Context, userID string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return len(f.byUser(userID)), nil
}

func (f fakeInvoices) GetAllBySupplierIDs(_ context.Context, ids []string) (map[string][]*models.Invoice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := map[string][]*models.Invoice{}
	for _, id := range ids {
		if list := f.bySupplier(id); len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

// --- fake Misoca ---

type fakeMisoca struct {
	mu sync.Mutex

	refreshCalls   []string
	refreshErr     error
	refreshEntered chan struct{}
	refreshGate    chan struct{}

	exchangeErr error

	perPageSeen []int
	pages       map[string][][]misoca.Invoice
	alwaysFull  []misoca.Invoice
	invoicesErr error
	invoiceCall int

	contactPages [][]misoca.Contact
	contactCalls int
	created      []string
	createErr    error

	pdf      []byte
	pdfCalls int
	pdfErr   error
}

func (f *fakeMisoca) AuthCodeURL(state string) string {
	return "https://misoca.test/oauth2/authorize?state=" + state
}

func (f *fakeMisoca) ExchangeCode(_ context.Context, code string) (*misoca.TokenPair, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &misoca.TokenPair{AccessToken: "at-" + code, RefreshToken: "rt-" + code}, nil
}

func (f *fakeMisoca) RefreshTokens(ctx context.Context, refreshToken string) (*misoca.TokenPair, error) {
	if f.refreshEntered != nil {
		f.refreshEntered <- struct{}{}
	}
	if f.refreshGate != nil {
		<-f.refreshGate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	n := len(f.refreshCalls)
	return &misoca.TokenPair{
		AccessToken:  fmt.Sprintf("at-%d", n),
		RefreshToken: fmt.Sprintf("rt-%d", n),
	}, nil
}

func (f *fakeMisoca) GetInvoices(_ context.Context, in misoca.GetInvoicesInput) ([]misoca.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoiceCall++
	f.perPageSeen = append(f.perPageSeen, in.PerPage)
	if f.invoicesErr != nil {
		return nil, f.invoicesErr
	}
	if f.alwaysFull != nil {
		return f.alwaysFull, nil
	}
	pages := f.pages[in.ContactGroupID]
	if in.Page-1 < len(pages) {
		return pages[in.Page-1], nil
	}
	return nil, nil
}

func (f *fakeMisoca) GetInvoicePDF(_ context.Context, _ string, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdfCalls++
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return f.pdf, nil
}

func (f *fakeMisoca) GetContacts(_ context.Context, _ string, page, _ int) ([]misoca.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contactCalls++
	if page-1 < len(f.contactPages) {
		return f.contactPages[page-1], nil
	}
	return nil, nil
}

func (f *fakeMisoca) CreateContact(_ context.Context, _ string, name string) (*misoca.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	var c misoca.Contact
	if err := json.Unmarshal([]byte(`{"id": 900, "contact_group_id": 901, "recipient_name": "`+name+`"}`), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- fake token source and PDF store ---

type fixedTokens struct {
	token string
	err   error
	calls int
}

func (f *fixedTokens) EnsureAccessToken(context.Context, string, time.Time) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakePDFStore struct {
	objects  map[string][]byte
	putErr   error
	validity time.Duration
}

func (f *fakePDFStore) Put(_ context.Context, key string, pdf []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = pdf
	return nil
}

func (f *fakePDFStore) PresignGet(_ context.Context, key string, validity time.Duration) (string, error) {
	f.validity = validity
	return "https://s3.test/" + key + "?signed", nil
}
