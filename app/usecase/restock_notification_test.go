package usecase

import (
	"context"
	"errors"
	"restock-service/app/domain"
	"restock-service/pkg/metrics"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFixture struct {
	store     *memRestockNotificationRepo
	inventory *fakeInventoryRepo
	customers *fakeCustomerRepo
	reg       *prometheus.Registry
	usecase   domain.RestockNotificationService
}

func newGateFixture() *gateFixture {
	f := &gateFixture{
		store:     newMemRestockNotificationRepo(),
		inventory: newFakeInventoryRepo(),
		customers: &fakeCustomerRepo{customers: map[int64]domain.Customer{
			1: {ID: 1, Email: "c1@example.com"},
			2: {ID: 2, Email: "c2@example.com"},
		}},
		reg: prometheus.NewRegistry(),
	}
	f.usecase = NewRestockNotificationUsecase(f.store, f.inventory, f.customers, metrics.NewRestockMetrics(f.reg))
	return f
}

func TestCreateSubscribesToOutOfStockProduct(t *testing.T) {
	f := newGateFixture()
	f.inventory.set(10, 0)
	country, language := "GB", "en"

	rn, err := f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{
		ProductID:   10,
		CountryCode: &country,
		Language:    &language,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rn.ID)
	assert.Equal(t, int64(10), rn.ProductID)
	assert.Equal(t, int64(1), rn.CustomerID)
	assert.Equal(t, "GB", *rn.CountryCode)
	assert.Equal(t, 1, f.store.count(10))
	assert.Equal(t, float64(1), counterValue(t, f.reg, "restock_signups_total", "result", "created"))
}

func TestCreateIsIdempotent(t *testing.T) {
	f := newGateFixture()
	f.inventory.set(10, 0)
	req := domain.RestockNotificationCreateRequest{ProductID: 10}

	first, err := f.usecase.Create(context.Background(), 1, req)
	require.NoError(t, err)
	second, err := f.usecase.Create(context.Background(), 1, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.count(10))
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	assert.Equal(t, float64(1), counterValue(t, f.reg, "restock_signups_total", "result", "duplicate"))
}

func TestCreateRejectsInStockProduct(t *testing.T) {
	f := newGateFixture()
	f.inventory.set(10, 3)

	_, err := f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{ProductID: 10})
	assert.ErrorIs(t, err, domain.ErrNotAllowed)
	assert.Zero(t, f.store.count(10))
	assert.Equal(t, float64(1), counterValue(t, f.reg, "restock_signups_total", "result", "in_stock"))
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	f := newGateFixture()
	f.inventory.set(10, 0)

	_, err := f.usecase.Create(context.Background(), 99, domain.RestockNotificationCreateRequest{ProductID: 10})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, f.store.count(10))
	assert.Empty(t, f.inventory.shopIDs, "inventory must not be queried for an unknown customer")
}

func TestCreateRejectsUntrackedProduct(t *testing.T) {
	f := newGateFixture()

	_, err := f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{ProductID: 404})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.store.count(404))
}

func TestCreateScopesAvailabilityToSalesChannel(t *testing.T) {
	f := newGateFixture()
	f.inventory.set(10, 0)
	shopID := int64(3)

	_, err := f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{ProductID: 10, SalesChannelID: &shopID})
	require.NoError(t, err)
	require.Len(t, f.inventory.shopIDs, 1)
	require.NotNil(t, f.inventory.shopIDs[0])
	assert.Equal(t, int64(3), *f.inventory.shopIDs[0])
}

func TestCreatePropagatesTransientErrors(t *testing.T) {
	f := newGateFixture()
	unreachable := errors.New("inventory unreachable")
	f.inventory.err = unreachable

	_, err := f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{ProductID: 10})
	assert.ErrorIs(t, err, unreachable)

	f.inventory.err = nil
	f.inventory.set(10, 0)
	f.customers.err = errors.New("customer directory down")

	_, err = f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{ProductID: 10})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateRetriesWhenDuplicateWasClearedByRestock(t *testing.T) {
	f := newGateFixture()
	f.inventory.set(10, 0)

	creates := 0
	f.store.createFn = func(ctx context.Context, rn *domain.RestockNotification) error {
		creates++
		if creates == 1 {
			return domain.ErrAlreadyExists
		}
		return nil
	}
	f.store.touchFn = func(ctx context.Context, productID, customerID int64) (domain.RestockNotification, error) {
		return domain.RestockNotification{}, domain.ErrNotFound
	}

	rn, err := f.usecase.Create(context.Background(), 1, domain.RestockNotificationCreateRequest{ProductID: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, creates)
	assert.Equal(t, int64(10), rn.ProductID)
}

func TestGetByProductIDReturnsOwnSubscription(t *testing.T) {
	f := newGateFixture()
	seeded := f.store.seed(10, 1)

	rn, err := f.usecase.GetByProductID(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, rn.ID)

	_, err = f.usecase.GetByProductID(context.Background(), 2, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListForCustomerBuildsMetadata(t *testing.T) {
	f := newGateFixture()
	f.store.seed(10, 1)
	f.store.seed(11, 1)
	f.store.seed(12, 1)
	f.store.seed(10, 2)

	list, meta, err := f.usecase.ListForCustomer(context.Background(), 1, domain.GetListRestockNotificationRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, domain.Metadata{TotalData: 3, TotalPage: 2, Page: 1, Limit: 2}, meta)

	all, meta, err := f.usecase.ListAll(context.Background(), domain.GetListRestockNotificationRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, int64(4), meta.TotalData)
	assert.Equal(t, int64(1), meta.TotalPage)
}
