package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bharosepe/internal/models"
)

// fakeStore models the persistence port with compare-and-swap semantics:
// GetTransaction serves the snapshot read at the start of ApplyEvent, while
// Execute checks the decision's From status against the currently committed
// one, the way the conditional UPDATE does.
type fakeStore struct {
	read      models.Transaction
	committed models.TransactionStatus
	dispute   *models.Dispute
	messages  []models.DisputeMessage
	proposals []models.DisputeProposal

	getErr  error
	execErr error

	executed []Decision
}

func (f *fakeStore) GetTransaction(ctx context.Context, id uint) (models.Transaction, error) {
	if f.getErr != nil {
		return models.Transaction{}, f.getErr
	}
	return f.read, nil
}

func (f *fakeStore) ActiveDispute(ctx context.Context, transactionID uint) (*models.Dispute, error) {
	return f.dispute, nil
}

func (f *fakeStore) DisputeContext(ctx context.Context, disputeID uint) ([]models.DisputeMessage, []models.DisputeProposal, error) {
	return f.messages, f.proposals, nil
}

func (f *fakeStore) Execute(ctx context.Context, transactionID uint, dec Decision) error {
	if f.execErr != nil {
		return f.execErr
	}
	if dec.From != f.committed {
		return ErrStaleState
	}
	f.committed = dec.To
	f.executed = append(f.executed, dec)
	return nil
}

type fakeDispatcher struct {
	err        error
	dispatched [][]models.Notification
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, ns []models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, ns)
	return nil
}

func TestApplyEventSuccess(t *testing.T) {
	store := &fakeStore{read: testTxn(models.TransactionContractAccepted), committed: models.TransactionContractAccepted}
	disp := &fakeDispatcher{}
	applier := NewApplier(store, disp)

	res, err := applier.ApplyEvent(context.Background(), 1, EventPaymentMade, testBuyer, Payload{Amount: 1000})
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if res.Status != models.TransactionPaymentMade {
		t.Errorf("status %s, want payment_made", res.Status)
	}
	if res.SideEffectErr != nil {
		t.Errorf("unexpected side effect error: %v", res.SideEffectErr)
	}
	if len(store.executed) != 1 {
		t.Fatalf("expected one committed decision, got %d", len(store.executed))
	}
	if len(disp.dispatched) != 1 || len(disp.dispatched[0]) != 1 {
		t.Fatalf("expected one dispatched notification batch, got %+v", disp.dispatched)
	}
}

// Two calls that both read the same snapshot: exactly one wins the
// compare-and-swap, the other reports StaleState and dispatches nothing.
func TestApplyEventOptimisticConcurrency(t *testing.T) {
	txn := testTxn(models.TransactionCreated)
	c := pendingContract(txn)
	store := &fakeStore{read: txn, committed: models.TransactionCreated}
	disp := &fakeDispatcher{}
	applier := NewApplier(store, disp)

	if _, err := applier.ApplyEvent(context.Background(), 1, EventContractAccepted, testSeller, Payload{Contract: c}); err != nil {
		t.Fatalf("first ApplyEvent: %v", err)
	}

	// Second caller still holds the stale snapshot (store.read unchanged).
	_, err := applier.ApplyEvent(context.Background(), 1, EventContractRejected, testSeller, Payload{Contract: c})
	if !errors.Is(err, ErrStaleState) {
		t.Fatalf("second ApplyEvent: want ErrStaleState, got %v", err)
	}
	if len(store.executed) != 1 {
		t.Errorf("only one decision should commit, got %d", len(store.executed))
	}
	if len(disp.dispatched) != 1 {
		t.Errorf("stale transition must not dispatch notifications, got %d batches", len(disp.dispatched))
	}
}

func TestApplyEventNotFound(t *testing.T) {
	store := &fakeStore{getErr: ErrNotFound}
	applier := NewApplier(store, &fakeDispatcher{})

	if _, err := applier.ApplyEvent(context.Background(), 42, EventPaymentMade, testBuyer, Payload{Amount: 1000}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// A dispatcher failure never unwinds the committed transition; it comes
// back as a side effect error on a successful result.
func TestApplyEventSideEffectFailure(t *testing.T) {
	store := &fakeStore{read: testTxn(models.TransactionContractAccepted), committed: models.TransactionContractAccepted}
	disp := &fakeDispatcher{err: errors.New("insert failed")}
	applier := NewApplier(store, disp)

	res, err := applier.ApplyEvent(context.Background(), 1, EventPaymentMade, testBuyer, Payload{Amount: 1000})
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if res.Status != models.TransactionPaymentMade {
		t.Errorf("status %s, want payment_made", res.Status)
	}
	if !errors.Is(res.SideEffectErr, ErrSideEffectFailure) {
		t.Errorf("want ErrSideEffectFailure, got %v", res.SideEffectErr)
	}
	if store.committed != models.TransactionPaymentMade {
		t.Errorf("transition must stay committed, store at %s", store.committed)
	}
}

// The escalation snapshot is captured at decision time; dispute activity
// after the escalation does not reach the stored snapshot.
func TestEscalationSnapshotImmutable(t *testing.T) {
	txn := testTxn(models.TransactionDisputed)
	d := activeDispute(txn, testBuyer.ID)
	store := &fakeStore{
		read:      txn,
		committed: models.TransactionDisputed,
		dispute:   d,
		messages: []models.DisputeMessage{
			{ID: 1, DisputeID: d.ID, SenderID: testBuyer.ID, Body: "where is my order"},
		},
		proposals: []models.DisputeProposal{
			{ID: 1, DisputeID: d.ID, ProposedBy: testSeller.ID, Type: models.ProposalRefundPartial, Amount: 300},
		},
	}
	applier := NewApplier(store, &fakeDispatcher{})

	res, err := applier.ApplyEvent(context.Background(), 1, EventEscalationRequested, testBuyer, Payload{Reason: "stalled"})
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	captured := res.Decision.CreateEscalation.DisputeData
	if captured == "" {
		t.Fatal("escalation row has no dispute snapshot")
	}

	// New activity lands after escalation.
	store.messages = append(store.messages, models.DisputeMessage{ID: 2, DisputeID: d.ID, SenderID: testSeller.ID, Body: "late reply"})

	var snap DisputeSnapshot
	if err := json.Unmarshal([]byte(captured), &snap); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if len(snap.Messages) != 1 {
		t.Errorf("snapshot has %d messages, want the 1 present at capture", len(snap.Messages))
	}
	if len(snap.Proposals) != 1 {
		t.Errorf("snapshot has %d proposals, want 1", len(snap.Proposals))
	}
	if snap.Dispute.ID != d.ID {
		t.Errorf("snapshot dispute %d, want %d", snap.Dispute.ID, d.ID)
	}
}
