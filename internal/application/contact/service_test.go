package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cashflow-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockContactStore struct{ mock.Mock }

func (m *mockContactStore) Create(ctx context.Context, c *domain.Contact) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockContactStore) Get(ctx context.Context, userID, contactID string) (*domain.Contact, error) {
	args := m.Called(ctx, userID, contactID)
	if c, _ := args.Get(0).(*domain.Contact); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockContactStore) ListByUser(ctx context.Context, userID string, kind domain.ContactKind) ([]domain.Contact, error) {
	args := m.Called(ctx, userID, kind)
	cs, _ := args.Get(0).([]domain.Contact)
	return cs, args.Error(1)
}
func (m *mockContactStore) Update(ctx context.Context, c *domain.Contact, previousEmail string) error {
	return m.Called(ctx, c, previousEmail).Error(0)
}
func (m *mockContactStore) Delete(ctx context.Context, c *domain.Contact) error {
	return m.Called(ctx, c).Error(0)
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newSvc() (Service, *mockContactStore) {
	repo := &mockContactStore{}
	return NewService(ServiceDeps{ContactRepo: repo, Now: func() time.Time { return t0 }}), repo
}

func TestCreate(t *testing.T) {
	svc, repo := newSvc()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Contact")).Return(nil)

	c, err := svc.Create(context.Background(), "u1", domain.KindVendor, domain.ContactRequest{
		Name:        "  Acme Supplies ",
		CompanyName: "Acme",
		Email:       " Billing@Acme.test ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ContactID)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, domain.KindVendor, c.Kind)
	assert.Equal(t, "Acme Supplies", c.Name)
	assert.Equal(t, "billing@acme.test", c.Email)
	assert.Equal(t, t0, c.CreatedAt)
	assert.Equal(t, t0, c.UpdatedAt)
	repo.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	svc, repo := newSvc()

	_, err := svc.Create(context.Background(), "u1", domain.KindCustomer, domain.ContactRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(context.Background(), "u1", domain.KindCustomer, domain.ContactRequest{Name: "Bo", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, repo := newSvc()
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrContactEmailTaken)

	_, err := svc.Create(context.Background(), "u1", domain.KindCustomer, domain.ContactRequest{Name: "Bo", Email: "bo@x.test"})
	assert.ErrorIs(t, err, domain.ErrContactEmailTaken)
}

func TestGet_WrongKindIsNotFound(t *testing.T) {
	svc, repo := newSvc()
	repo.On("Get", mock.Anything, "u1", "c1").Return(&domain.Contact{ContactID: "c1", UserID: "u1", Kind: domain.KindCustomer}, nil)

	_, err := svc.Get(context.Background(), "u1", domain.KindVendor, "c1")
	assert.ErrorIs(t, err, domain.ErrVendorNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_MissingUsesKindSentinel(t *testing.T) {
	svc, repo := newSvc()
	repo.On("Get", mock.Anything, "u1", "gone").Return(nil, domain.ErrNotFound)

	_, err := svc.Get(context.Background(), "u1", domain.KindCustomer, "gone")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestUpdate_PassesPreviousEmail(t *testing.T) {
	svc, repo := newSvc()
	existing := &domain.Contact{ContactID: "c1", UserID: "u1", Kind: domain.KindCustomer, Name: "Bo", Email: "old@x.test", CreatedAt: t0.Add(-time.Hour)}
	repo.On("Get", mock.Anything, "u1", "c1").Return(existing, nil)
	repo.On("Update", mock.Anything, existing, "old@x.test").Return(nil)

	c, err := svc.Update(context.Background(), "u1", domain.KindCustomer, "c1", domain.ContactRequest{Name: "Bo B", Email: "New@x.test", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "Bo B", c.Name)
	assert.Equal(t, "new@x.test", c.Email)
	assert.Equal(t, "555", c.Phone)
	assert.Equal(t, t0, c.UpdatedAt)
	assert.Equal(t, t0.Add(-time.Hour), c.CreatedAt)
	repo.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	svc, repo := newSvc()
	existing := &domain.Contact{ContactID: "c1", UserID: "u1", Kind: domain.KindVendor}
	repo.On("Get", mock.Anything, "u1", "c1").Return(existing, nil)
	repo.On("Delete", mock.Anything, existing).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "u1", domain.KindVendor, "c1"))
	repo.AssertExpectations(t)
}

func TestDelete_OtherUser(t *testing.T) {
	svc, repo := newSvc()
	repo.On("Get", mock.Anything, "u2", "c1").Return(nil, domain.ErrNotFound)

	err := svc.Delete(context.Background(), "u2", domain.KindVendor, "c1")
	assert.ErrorIs(t, err, domain.ErrVendorNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestList_WrapsStoreError(t *testing.T) {
	svc, repo := newSvc()
	boom := errors.New("boom")
	repo.On("ListByUser", mock.Anything, "u1", domain.KindCustomer).Return(nil, boom)

	_, err := svc.List(context.Background(), "u1", domain.KindCustomer)
	assert.ErrorIs(t, err, boom)
}
