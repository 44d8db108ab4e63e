// internal/service/payment/fakes_test.go
package payment

import (
	"context"
	"database/sql"
	"sync"
	"time"

	paymentdom "tafiti-service/internal/domain/payment"
	"tafiti-service/internal/gateway"
	xerrors "tafiti-service/internal/pkg/errors"
)

// fakeAttemptStore mimics the Postgres repository's conditional-update
// semantics in memory.
type fakeAttemptStore struct {
	mu          sync.Mutex
	nextID      int64
	attempts    map[int64]*paymentdom.Attempt
	settlements map[string]*paymentdom.Settlement
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts:    make(map[int64]*paymentdom.Attempt),
		settlements: make(map[string]*paymentdom.Settlement),
	}
}

func (f *fakeAttemptStore) get(id int64) *paymentdom.Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.attempts[id]
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func (f *fakeAttemptStore) Create(_ context.Context, a *paymentdom.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.attempts {
		if existing.TenantID == a.TenantID && existing.IdempotencyKey == a.IdempotencyKey {
			return xerrors.ErrDuplicateEntry
		}
	}
	f.nextID++
	a.ID = f.nextID
	a.CreatedAt = time.Now()
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeAttemptStore) FindByID(_ context.Context, tenantID, id int64) (*paymentdom.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) FindByIdempotencyKey(_ context.Context, tenantID int64, key string) (*paymentdom.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.TenantID == tenantID && a.IdempotencyKey == key {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeAttemptStore) FindByReference(_ context.Context, tenantID int64, reference string) (*paymentdom.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.TenantID == tenantID && a.Reference == reference {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeAttemptStore) MarkProcessing(_ context.Context, id int64, gatewayTxnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if !paymentdom.CanTransition(a.Status, paymentdom.StatusProcessing) {
		return xerrors.ErrTerminalState
	}
	a.Status = paymentdom.StatusProcessing
	a.GatewayTxnID.String = gatewayTxnID
	a.GatewayTxnID.Valid = true
	return nil
}

func (f *fakeAttemptStore) MarkFailed(_ context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if !paymentdom.CanTransition(a.Status, paymentdom.StatusFailed) {
		return xerrors.ErrTerminalState
	}
	a.Status = paymentdom.StatusFailed
	a.ErrorMessage.String = reason
	a.ErrorMessage.Valid = true
	return nil
}

func (f *fakeAttemptStore) ResetForRetry(_ context.Context, id int64, gatewayTxnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if a.Status != paymentdom.StatusFailed {
		return xerrors.ErrTerminalState
	}
	a.Status = paymentdom.StatusProcessing
	a.GatewayTxnID.String = gatewayTxnID
	a.GatewayTxnID.Valid = true
	a.ErrorMessage = sql.NullString{}
	return nil
}

func (f *fakeAttemptStore) FailByGatewayRef(_ context.Context, chargeRef, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.GatewayTxnID.Valid && a.GatewayTxnID.String == chargeRef {
			if a.Status.IsTerminal() {
				return xerrors.ErrNotFound
			}
			a.Status = paymentdom.StatusFailed
			a.ErrorMessage.String = reason
			a.ErrorMessage.Valid = true
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (f *fakeAttemptStore) ListProcessingOlderThan(_ context.Context, cutoff time.Time, limit int) ([]paymentdom.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []paymentdom.Attempt
	for _, a := range f.attempts {
		if a.Status == paymentdom.StatusProcessing && a.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) Settle(_ context.Context, chargeRef string, s *paymentdom.Settlement) (*paymentdom.Attempt, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *paymentdom.Attempt
	for _, a := range f.attempts {
		if a.GatewayTxnID.Valid && a.GatewayTxnID.String == chargeRef {
			target = a
			break
		}
	}
	if target == nil {
		return nil, false, xerrors.ErrNotFound
	}

	if target.Status.IsTerminal() {
		cp := *target
		return &cp, false, nil
	}
	if _, exists := f.settlements[s.GatewayTxnID]; exists {
		cp := *target
		return &cp, false, nil
	}

	s.PaymentID = target.ID
	s.TenantID = target.TenantID
	cp := *s
	f.settlements[s.GatewayTxnID] = &cp

	target.Status = paymentdom.StatusSucceeded
	out := *target
	return &out, true, nil
}

// The settlement lookups live on the same store so Settle stays atomic
// under one lock, as in the real transaction.
func (f *fakeAttemptStore) FindByGatewayTxnID(_ context.Context, gatewayTxnID string) (*paymentdom.Settlement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settlements[gatewayTxnID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeAttemptStore) ListByPayment(_ context.Context, tenantID, paymentID int64) ([]paymentdom.Settlement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []paymentdom.Settlement
	for _, s := range f.settlements {
		if s.TenantID == tenantID && s.PaymentID == paymentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// fakeGateway scripts the gateway's responses per test.
type fakeGateway struct {
	mu         sync.Mutex
	calls      int
	initErr    error
	verify     *gateway.ChargeStatus
	verifyErr  error
	signatures map[string]bool
}

func (g *fakeGateway) Name() string { return "testpay" }

func (g *fakeGateway) InitializeCharge(_ context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gateway.Charge{Reference: req.Reference}, nil
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*gateway.ChargeStatus, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verify, nil
}

func (g *fakeGateway) VerifySignature(payload []byte, signature string) bool {
	if g.signatures == nil {
		return signature == "valid"
	}
	return g.signatures[signature]
}

func (g *fakeGateway) initCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
