package lifecycle

import (
	"context"
	"fmt"
	"log"

	"bharosepe/internal/models"
)

// Store is the persistence port the applier drives. Execute must perform
// the status write as a compare-and-swap on Decision.From and commit every
// child-row write in the same database transaction, returning ErrStaleState
// (and writing nothing) when the row is no longer in the expected status.
type Store interface {
	GetTransaction(ctx context.Context, id uint) (models.Transaction, error)
	ActiveDispute(ctx context.Context, transactionID uint) (*models.Dispute, error)
	DisputeContext(ctx context.Context, disputeID uint) ([]models.DisputeMessage, []models.DisputeProposal, error)
	Execute(ctx context.Context, transactionID uint, dec Decision) error
}

// Dispatcher persists and delivers notification side effects. Dispatch runs
// after the state transition has committed and must never roll it back.
type Dispatcher interface {
	Dispatch(ctx context.Context, notifications []models.Notification) error
}

// Result reports a committed transition. SideEffectErr is set when the
// transition committed but notification dispatch failed; callers surface it
// to operators, never to roll back.
type Result struct {
	Status        models.TransactionStatus
	Decision      Decision
	SideEffectErr error
}

// Applier binds the pure engine to a store and a dispatcher. It holds no
// state of its own; retry policy on ErrStaleState belongs to the caller.
type Applier struct {
	store      Store
	dispatcher Dispatcher
}

func NewApplier(store Store, dispatcher Dispatcher) *Applier {
	return &Applier{store: store, dispatcher: dispatcher}
}

// ApplyEvent reads the transaction, decides the transition, commits it with
// optimistic concurrency, then dispatches notifications best-effort.
func (a *Applier) ApplyEvent(ctx context.Context, transactionID uint, ev Event, actor models.User, p Payload) (Result, error) {
	txn, err := a.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return Result{}, err
	}

	switch ev {
	case EventDisputeRaised, EventDisputeResolved, EventEscalationRequested:
		d, err := a.store.ActiveDispute(ctx, txn.ID)
		if err != nil {
			return Result{}, err
		}
		p.ActiveDispute = d
	}

	if ev == EventEscalationRequested && p.ActiveDispute != nil {
		msgs, props, err := a.store.DisputeContext(ctx, p.ActiveDispute.ID)
		if err != nil {
			return Result{}, err
		}
		snap, err := SnapshotDisputeData(*p.ActiveDispute, msgs, props)
		if err != nil {
			return Result{}, err
		}
		p.DisputeSnapshot = snap
	}

	dec, err := Decide(txn, actor, ev, p)
	if err != nil {
		return Result{}, err
	}

	if err := a.store.Execute(ctx, txn.ID, dec); err != nil {
		return Result{}, err
	}

	res := Result{Status: dec.To, Decision: dec}
	if len(dec.Notifications) > 0 {
		if err := a.dispatcher.Dispatch(ctx, dec.Notifications); err != nil {
			// The transition is already committed; log and surface, do
			// not roll back or retry here.
			log.Printf("⚠️  notification dispatch failed for transaction %d after %s: %v", txn.ID, ev, err)
			res.SideEffectErr = fmt.Errorf("%w: %v", ErrSideEffectFailure, err)
		}
	}
	return res, nil
}
