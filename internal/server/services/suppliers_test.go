package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/misoca"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(name string) models.SupplierParams {
	return models.SupplierParams{Name: name, BillingAmount: 300000, BillingType: models.BillingTypeMonthly, Subject: "Dev"}
}

func TestSupplierCreate_UsesExistingContactOnLaterPage(t *testing.T) {
	store := newMemStore()
	var first []misoca.Contact
	for i := 0; i < contactsPerPage; i++ {
		first = append(first, contact(t, fmt.Sprint(i+1), "7", fmt.Sprintf("Other %d", i)))
	}
	client := &fakeMisoca{contactPages: [][]misoca.Contact{first, {contact(t, `"c-acme"`, `"g-acme"`, "ACME")}}}

	db, _ := newSQLMockDB(t)
	s := NewSupplierService(db, fakeManager{store}, &fixedTokens{token: "at"}, client, logging.Discard())
	s.newID = func() string { return "sp-1" }

	got, err := s.Create(context.Background(), "u1", monthly("ACME"), t0)
	require.NoError(t, err)
	assert.Equal(t, "sp-1", got.ID)
	assert.Equal(t, "c-acme", got.ContactID)
	assert.Equal(t, "g-acme", got.ContactGroupID)
	assert.Equal(t, 2, client.contactCalls)
	assert.Empty(t, client.created)

	stored, ok := store.suppliers["sp-1"]
	require.True(t, ok)
	assert.Equal(t, "u1", stored.UserID)
}

func TestSupplierCreate_CreatesMissingContact(t *testing.T) {
	store := newMemStore()
	client := &fakeMisoca{contactPages: [][]misoca.Contact{{contact(t, "1", "2", "Someone")}}}

	db, _ := newSQLMockDB(t)
	s := NewSupplierService(db, fakeManager{store}, &fixedTokens{token: "at"}, client, logging.Discard())

	got, err := s.Create(context.Background(), "u1", monthly("ACME"), t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, client.created)
	assert.Equal(t, "900", got.ContactID)
	assert.Equal(t, "901", got.ContactGroupID)
	assert.NotEmpty(t, got.ID)
}

func TestSupplierCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    models.SupplierParams
	}{
		{"empty name", models.SupplierParams{Name: "  ", BillingType: models.BillingTypeMonthly}},
		{"negative amount", models.SupplierParams{Name: "A", BillingAmount: -1, BillingType: models.BillingTypeMonthly}},
		{"unknown type", models.SupplierParams{Name: "A", BillingType: "weekly"}},
		{"bad end month", models.SupplierParams{Name: "A", BillingType: models.BillingTypeOneTime, EndYM: "2024/13"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens := &fixedTokens{token: "at"}
			s := NewSupplierService(nil, fakeManager{newMemStore()}, tokens, &fakeMisoca{}, logging.Discard())
			_, err := s.Create(context.Background(), "u1", tc.p, t0)
			require.ErrorIs(t, err, common.ErrBadRequest)
			assert.Zero(t, tokens.calls)
		})
	}
}

func TestSupplierCreate_NotConnected(t *testing.T) {
	client := &fakeMisoca{}
	s := NewSupplierService(nil, fakeManager{newMemStore()}, &fixedTokens{err: common.ErrNotConnected}, client, logging.Discard())

	_, err := s.Create(context.Background(), "u1", monthly("ACME"), t0)
	require.ErrorIs(t, err, common.ErrNotConnected)
	assert.Zero(t, client.contactCalls)
}

func TestSupplierUpdate(t *testing.T) {
	store := newMemStore()
	seedSupplier(store, "s1", "u1", "g1")
	client := &fakeMisoca{contactPages: [][]misoca.Contact{{contact(t, "5", "55", "Renamed")}}}

	db, mock := newSQLMockDB(t)
	s := NewSupplierService(db, fakeManager{store}, &fixedTokens{token: "at"}, client, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectCommit()

	p := models.SupplierParams{Name: "Renamed", BillingAmount: 5000, BillingType: models.BillingTypeOneTime, EndYM: "2024-12"}
	got, err := s.Update(context.Background(), "u1", "s1", p, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "5", got.ContactID)
	assert.Equal(t, "55", got.ContactGroupID)
	assert.Equal(t, "2024-12", store.suppliers["s1"].EndYM)
	assert.Equal(t, int64(5000), store.suppliers["s1"].BillingAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierUpdate_Errors(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		store := newMemStore()
		seedSupplier(store, "s1", "u2", "g1")
		tokens := &fixedTokens{token: "at"}
		s := NewSupplierService(nil, fakeManager{store}, tokens, &fakeMisoca{}, logging.Discard())

		_, err := s.Update(context.Background(), "u1", "s1", monthly("X"), t0)
		require.ErrorIs(t, err, common.ErrForbidden)
		assert.Zero(t, tokens.calls)
	})

	t.Run("missing supplier", func(t *testing.T) {
		s := NewSupplierService(nil, fakeManager{newMemStore()}, &fixedTokens{}, &fakeMisoca{}, logging.Discard())
		_, err := s.Update(context.Background(), "u1", "nope", monthly("X"), t0)
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("contact not found is never created", func(t *testing.T) {
		store := newMemStore()
		seedSupplier(store, "s1", "u1", "g1")
		client := &fakeMisoca{}
		s := NewSupplierService(nil, fakeManager{store}, &fixedTokens{token: "at"}, client, logging.Discard())

		_, err := s.Update(context.Background(), "u1", "s1", monthly("Unknown"), t0)
		require.ErrorIs(t, err, common.ErrorNotFound)
		assert.Empty(t, client.created)
	})
}

func TestSupplierDelete_RemovesInvoices(t *testing.T) {
	store := newMemStore()
	seedSupplier(store, "s1", "u1", "g1")
	seedSupplier(store, "s2", "u1", "g2")
	store.invoices["i1"] = models.Invoice{ID: "i1", SupplierID: "s1"}
	store.invoices["i2"] = models.Invoice{ID: "i2", SupplierID: "s2"}

	db, mock := newSQLMockDB(t)
	s := NewSupplierService(db, fakeManager{store}, &fixedTokens{}, &fakeMisoca{}, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, s.Delete(context.Background(), "u1", "s1"))
	_, ok := store.suppliers["s1"]
	assert.False(t, ok)
	_, ok = store.invoice("i1")
	assert.False(t, ok)
	_, ok = store.invoice("i2")
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierDelete_ForbiddenRollsBack(t *testing.T) {
	store := newMemStore()
	seedSupplier(store, "s1", "u2", "g1")

	db, mock := newSQLMockDB(t)
	s := NewSupplierService(db, fakeManager{store}, &fixedTokens{}, &fakeMisoca{}, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.Delete(context.Background(), "u1", "s1")
	require.ErrorIs(t, err, common.ErrForbidden)
	assert.Empty(t, store.writes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierDelete_InvoiceFailureIsInternal(t *testing.T) {
	store := newMemStore()
	seedSupplier(store, "s1", "u1", "g1")
	store.deleteInvErr = fmt.Errorf("db error: deadlock")

	db, mock := newSQLMockDB(t)
	s := NewSupplierService(db, fakeManager{store}, &fixedTokens{}, &fakeMisoca{}, logging.Discard())

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.Delete(context.Background(), "u1", "s1")
	require.ErrorIs(t, err, common.ErrorInternal)
	_, ok := store.suppliers["s1"]
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
