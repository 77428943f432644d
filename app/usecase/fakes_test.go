package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"restock-service/app/domain"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// memRestockNotificationRepo is an in-memory store whose transactions are
// serialized and roll back on error, like a row-locked read-committed Postgres
// transaction for a single product.
type memRestockNotificationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.RestockNotification

	createFn func(ctx context.Context, rn *domain.RestockNotification) error
	touchFn  func(ctx context.Context, productID, customerID int64) (domain.RestockNotification, error)
	deleteFn func(ctx context.Context, productID int64, ids []uuid.UUID) (int64, error)
	lockErr  error
}

func newMemRestockNotificationRepo() *memRestockNotificationRepo {
	return &memRestockNotificationRepo{rows: make(map[uuid.UUID]domain.RestockNotification)}
}

func (m *memRestockNotificationRepo) seed(productID int64, customerIDs ...int64) []domain.RestockNotification {
	var seeded []domain.RestockNotification
	for _, customerID := range customerIDs {
		rn := domain.RestockNotification{
			ID:         uuid.Must(uuid.NewV4()),
			ProductID:  productID,
			CustomerID: customerID,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		m.rows[rn.ID] = rn
		seeded = append(seeded, rn)
	}
	return seeded
}

func (m *memRestockNotificationRepo) Create(ctx context.Context, rn *domain.RestockNotification, tx *sql.Tx) error {
	if m.createFn != nil {
		return m.createFn(ctx, rn)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.ProductID == rn.ProductID && existing.CustomerID == rn.CustomerID {
			return fmt.Errorf("%w: restock notification for product %d", domain.ErrAlreadyExists, rn.ProductID)
		}
	}
	rn.CreatedAt = time.Now()
	rn.UpdatedAt = rn.CreatedAt
	m.rows[rn.ID] = *rn
	return nil
}

func (m *memRestockNotificationRepo) Touch(ctx context.Context, productID, customerID int64, tx *sql.Tx) (domain.RestockNotification, error) {
	if m.touchFn != nil {
		return m.touchFn(ctx, productID, customerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.rows {
		if existing.ProductID == productID && existing.CustomerID == customerID {
			existing.UpdatedAt = time.Now()
			m.rows[id] = existing
			return existing, nil
		}
	}
	return domain.RestockNotification{}, domain.ErrNotFound
}

func (m *memRestockNotificationRepo) GetByProductIDAndCustomerID(ctx context.Context, productID, customerID int64) (domain.RestockNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.ProductID == productID && existing.CustomerID == customerID {
			return existing, nil
		}
	}
	return domain.RestockNotification{}, domain.ErrNotFound
}

func (m *memRestockNotificationRepo) byProduct(productID int64) []domain.RestockNotification {
	var out []domain.RestockNotification
	for _, rn := range m.rows {
		if rn.ProductID == productID {
			out = append(out, rn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func (m *memRestockNotificationRepo) GetByProductID(ctx context.Context, productID int64, tx *sql.Tx) ([]domain.RestockNotification, error) {
	if tx == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return m.byProduct(productID), nil
}

// LockByProductID expects to run inside WithTransaction, which already holds mu.
func (m *memRestockNotificationRepo) LockByProductID(ctx context.Context, productID int64, tx *sql.Tx) ([]domain.RestockNotification, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	return m.byProduct(productID), nil
}

func (m *memRestockNotificationRepo) GetListByCustomerID(ctx context.Context, customerID int64, param domain.GetListRestockNotificationRequest) ([]domain.RestockNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RestockNotification
	for _, rn := range m.rows {
		if rn.CustomerID == customerID {
			out = append(out, rn)
		}
	}
	return out, nil
}

func (m *memRestockNotificationRepo) GetListByCustomerIDCount(ctx context.Context, customerID int64) (int64, error) {
	list, _ := m.GetListByCustomerID(ctx, customerID, domain.GetListRestockNotificationRequest{})
	return int64(len(list)), nil
}

func (m *memRestockNotificationRepo) GetList(ctx context.Context, param domain.GetListRestockNotificationRequest) ([]domain.RestockNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RestockNotification, 0, len(m.rows))
	for _, rn := range m.rows {
		out = append(out, rn)
	}
	return out, nil
}

func (m *memRestockNotificationRepo) GetListCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

// DeleteByProductID expects to run inside WithTransaction, which already holds mu.
func (m *memRestockNotificationRepo) DeleteByProductID(ctx context.Context, productID int64, ids []uuid.UUID, tx *sql.Tx) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, productID, ids)
	}

	var removed int64
	for _, id := range ids {
		if rn, ok := m.rows[id]; ok && rn.ProductID == productID {
			delete(m.rows, id)
			removed++
		}
	}
	return removed, nil
}

// memTx stands in for the transaction handle; the fakes never call its methods.
var memTx = &sql.Tx{}

func (m *memRestockNotificationRepo) WithTransaction(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[uuid.UUID]domain.RestockNotification, len(m.rows))
	for id, rn := range m.rows {
		snapshot[id] = rn
	}

	if err := fn(ctx, memTx); err != nil {
		m.rows = snapshot
		return err
	}
	return nil
}

func (m *memRestockNotificationRepo) count(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byProduct(productID))
}

type fakeInventoryRepo struct {
	mu           sync.Mutex
	availability map[int64]domain.Availability
	err          error
	shopIDs      []*int64
	txs          []*sql.Tx
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{availability: make(map[int64]domain.Availability)}
}

func (f *fakeInventoryRepo) set(productID, available int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availability[productID] = domain.Availability{ProductID: productID, Stocks: 1, Available: available}
}

func (f *fakeInventoryRepo) GetAvailability(ctx context.Context, productID int64, shopID *int64, tx *sql.Tx) (domain.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shopIDs = append(f.shopIDs, shopID)
	f.txs = append(f.txs, tx)
	if f.err != nil {
		return domain.Availability{}, f.err
	}
	availability, ok := f.availability[productID]
	if !ok {
		return domain.Availability{ProductID: productID}, nil
	}
	return availability, nil
}

func (f *fakeInventoryRepo) GetProductIDByStockID(ctx context.Context, stockID int64) (int64, error) {
	return 0, domain.ErrNotFound
}

type fakeCustomerRepo struct {
	customers map[int64]domain.Customer
	err       error
}

func (f *fakeCustomerRepo) GetByID(ctx context.Context, id int64) (domain.Customer, error) {
	if f.err != nil {
		return domain.Customer{}, f.err
	}
	customer, ok := f.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrNotFound
	}
	return customer, nil
}

type publishedEvent struct {
	event domain.Event
	delay time.Duration
}

type fakePublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, event domain.Event) error
	events    []publishedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event domain.Event) error {
	if f.publishFn != nil {
		if err := f.publishFn(ctx, event); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{event: event})
	return nil
}

func (f *fakePublisher) PublishDelayed(ctx context.Context, event domain.Event, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{event: event, delay: delay})
	return nil
}

func (f *fakePublisher) published() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.events...)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, labelName, labelValue string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelName == "" {
				return metric.GetCounter().GetValue()
			}
			for _, label := range metric.GetLabel() {
				if label.GetName() == labelName && label.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
