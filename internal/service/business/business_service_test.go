// internal/service/business/business_service_test.go
package business

import (
	"context"
	"sync"
	"testing"

	businessdom "tafiti-service/internal/domain/business"
	"tafiti-service/internal/domain/event"
	"tafiti-service/internal/eventbus"
	xerrors "tafiti-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIntegrationStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*businessdom.Integration
}

func newFakeIntegrationStore() *fakeIntegrationStore {
	return &fakeIntegrationStore{rows: make(map[int64]*businessdom.Integration)}
}

func (f *fakeIntegrationStore) Create(_ context.Context, i *businessdom.Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.TenantID == i.TenantID && existing.Name == i.Name {
			return xerrors.ErrDuplicateEntry
		}
	}
	f.nextID++
	i.ID = f.nextID
	cp := *i
	f.rows[i.ID] = &cp
	return nil
}

func (f *fakeIntegrationStore) FindByID(_ context.Context, id int64) (*businessdom.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.rows[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

type fakeTransactionStore struct {
	mu   sync.Mutex
	rows map[string]*businessdom.TransactionRecord
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{rows: make(map[string]*businessdom.TransactionRecord)}
}

func (f *fakeTransactionStore) CreateIfAbsent(_ context.Context, t *businessdom.TransactionRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[t.ExternalTxnID]; exists {
		return false, nil
	}
	cp := *t
	f.rows[t.ExternalTxnID] = &cp
	return true, nil
}

func (f *fakeTransactionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type receivedCollector struct {
	mu     sync.Mutex
	events []event.BusinessTransactionReceived
}

func (c *receivedCollector) handle(_ context.Context, evt event.Event) error {
	e, ok := evt.(event.BusinessTransactionReceived)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *receivedCollector) all() []event.BusinessTransactionReceived {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.BusinessTransactionReceived, len(c.events))
	copy(out, c.events)
	return out
}

func newBusinessFixture(t *testing.T) (*BusinessService, *fakeTransactionStore, *receivedCollector, *eventbus.Bus, *businessdom.Integration) {
	t.Helper()
	logger := zap.NewNop()
	integrations := newFakeIntegrationStore()
	transactions := newFakeTransactionStore()
	bus := eventbus.New(2, logger)
	collector := &receivedCollector{}
	bus.Subscribe(event.NameBusinessTransactionReceived, "test.collector", collector.handle)

	svc := NewBusinessService(integrations, transactions, bus, logger)
	integration, err := svc.CreateIntegration(context.Background(), 1, &businessdom.CreateIntegrationInput{
		SurveyRef:  "SRV-001",
		Name:       "main-till",
		Secret:     "a-very-long-secret-value",
		ShortCodes: []string{"600100"},
	})
	require.NoError(t, err)
	return svc, transactions, collector, bus, integration
}

func confirmation(externalID string) *businessdom.ConfirmationInput {
	return &businessdom.ConfirmationInput{
		TransactionType:   "Pay Bill",
		TransID:           externalID,
		TransTime:         "20260815143000",
		TransAmount:       "1250.00",
		BusinessShortCode: "600100",
		MSISDN:            "254700000001",
		FirstName:         "Wanjiku",
		LastName:          "Mwangi",
	}
}

func TestConfirmRecordsTransactionAndPublishes(t *testing.T) {
	svc, transactions, collector, bus, integration := newBusinessFixture(t)

	err := svc.Confirm(context.Background(), integration.ID, "a-very-long-secret-value", confirmation(uuid.NewString()))
	require.NoError(t, err)
	bus.Stop()

	assert.Equal(t, 1, transactions.count())

	events := collector.all()
	require.Len(t, events, 1)
	assert.Equal(t, "SRV-001", events[0].SurveyRef)
	assert.Equal(t, "254700000001", events[0].MSISDN)
	assert.Equal(t, "Wanjiku Mwangi", events[0].FullName)
	assert.Equal(t, 1250.0, events[0].Amount)
}

func TestConfirmDeduplicatesExternalTxnID(t *testing.T) {
	svc, transactions, collector, bus, integration := newBusinessFixture(t)

	externalID := uuid.NewString()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Confirm(context.Background(), integration.ID, "a-very-long-secret-value", confirmation(externalID)))
	}
	bus.Stop()

	assert.Equal(t, 1, transactions.count(), "one ledger row per external txn id")
	assert.Len(t, collector.all(), 1, "duplicates must not re-trigger invitations")
}

func TestConfirmRejectsWrongSecret(t *testing.T) {
	svc, transactions, collector, bus, integration := newBusinessFixture(t)
	defer bus.Stop()

	err := svc.Confirm(context.Background(), integration.ID, "wrong-secret", confirmation(uuid.NewString()))
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	assert.Equal(t, 0, transactions.count())
	assert.Empty(t, collector.all())
}

func TestConfirmRejectsUnknownIntegration(t *testing.T) {
	svc, _, _, bus, _ := newBusinessFixture(t)
	defer bus.Stop()

	err := svc.Confirm(context.Background(), 999, "a-very-long-secret-value", confirmation(uuid.NewString()))
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
}

func TestConfirmRejectsBadAmount(t *testing.T) {
	svc, _, _, bus, integration := newBusinessFixture(t)
	defer bus.Stop()

	in := confirmation(uuid.NewString())
	in.TransAmount = "not-a-number"
	err := svc.Confirm(context.Background(), integration.ID, "a-very-long-secret-value", in)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestCreateIntegrationHashesSecret(t *testing.T) {
	_, _, _, bus, integration := newBusinessFixture(t)
	defer bus.Stop()

	assert.NotEqual(t, "a-very-long-secret-value", integration.SecretHash)
	assert.NotEmpty(t, integration.SecretHash)
}
