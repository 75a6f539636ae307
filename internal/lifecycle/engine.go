package lifecycle

import (
	"fmt"

	"bharosepe/internal/models"
)

// Event identifies a lifecycle transition request against a transaction.
type Event string

const (
	EventContractAccepted    Event = "contract_accepted"
	EventContractRejected    Event = "contract_rejected"
	EventPaymentMade         Event = "payment_made"
	EventWorkCompleted       Event = "work_completed"
	EventDeliveryConfirmed   Event = "delivery_confirmed"
	EventDisputeRaised       Event = "dispute_raised"
	EventDisputeResolved     Event = "dispute_resolved"
	EventEscalationRequested Event = "escalation_requested"
)

// Events lists every event the engine understands, in table order.
func Events() []Event {
	return []Event{
		EventContractAccepted,
		EventContractRejected,
		EventPaymentMade,
		EventWorkCompleted,
		EventDeliveryConfirmed,
		EventDisputeRaised,
		EventDisputeResolved,
		EventEscalationRequested,
	}
}

// Payload carries the event-specific data for Decide. The applier fills
// ActiveDispute and DisputeSnapshot from the store before deciding; handlers
// fill the rest from the request.
type Payload struct {
	Contract      *models.Contract
	ActiveDispute *models.Dispute

	// PaymentMade
	Amount int64

	// DisputeRaised
	Reason        string
	Description   string
	EvidenceFiles []string

	// DisputeResolved
	ResolutionNotes string
	BuyerRefund     int64
	SellerRelease   int64
	Arbiter         bool

	// EscalationRequested
	EscalationNotes string
	DisputeSnapshot string
}

// ContractUpdate is the contract row write that accompanies a contract event.
type ContractUpdate struct {
	ContractID uint
	Status     models.ContractStatus
}

// DisputeUpdate closes out the active dispute alongside the status change.
type DisputeUpdate struct {
	DisputeID       uint
	Status          models.DisputeStatus
	ResolutionNotes string
	BuyerRefund     int64
	SellerRelease   int64
}

// Decision is the full output of a transition: the status compare-and-swap
// to perform plus the child-row writes and the notifications to dispatch.
// The store must apply From->To conditionally; everything except
// Notifications commits in the same database transaction.
type Decision struct {
	Event Event
	From  models.TransactionStatus
	To    models.TransactionStatus

	ContractUpdate   *ContractUpdate
	CreateDispute    *models.Dispute
	DisputeUpdate    *DisputeUpdate
	CreateEscalation *models.Escalation

	Notifications []models.Notification
}

type transition struct {
	from []models.TransactionStatus
	to   models.TransactionStatus
}

// transitions is the authoritative (state, event) table. Any pair not
// representable here is rejected with ErrInvalidGuard before anything else
// is inspected.
var transitions = map[Event]transition{
	EventContractAccepted: {
		from: []models.TransactionStatus{models.TransactionCreated},
		to:   models.TransactionContractAccepted,
	},
	EventContractRejected: {
		from: []models.TransactionStatus{models.TransactionCreated},
		to:   models.TransactionContractRejected,
	},
	EventPaymentMade: {
		from: []models.TransactionStatus{models.TransactionContractAccepted},
		to:   models.TransactionPaymentMade,
	},
	EventWorkCompleted: {
		from: []models.TransactionStatus{models.TransactionPaymentMade},
		to:   models.TransactionWorkCompleted,
	},
	EventDeliveryConfirmed: {
		from: []models.TransactionStatus{models.TransactionPaymentMade, models.TransactionWorkCompleted},
		to:   models.TransactionCompleted,
	},
	EventDisputeRaised: {
		from: []models.TransactionStatus{
			models.TransactionContractAccepted,
			models.TransactionPaymentMade,
			models.TransactionWorkCompleted,
		},
		to: models.TransactionDisputed,
	},
	EventDisputeResolved: {
		from: []models.TransactionStatus{models.TransactionDisputed},
		to:   models.TransactionCompleted,
	},
	EventEscalationRequested: {
		from: []models.TransactionStatus{models.TransactionDisputed},
		to:   models.TransactionEscalated,
	},
}

func statusIn(s models.TransactionStatus, set []models.TransactionStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Decide is a pure function of (current transaction state, event): it reads
// nothing, writes nothing, and keeps no state between calls. The returned
// Decision tells the caller exactly what to persist and whom to notify.
func Decide(txn models.Transaction, actor models.User, ev Event, p Payload) (Decision, error) {
	t, ok := transitions[ev]
	if !ok {
		return Decision{}, fmt.Errorf("%w: unknown event %q", ErrInvalidGuard, ev)
	}
	if !statusIn(txn.Status, t.from) {
		return Decision{}, invalidTransitionErr(ev, txn.Status, t.from)
	}

	dec := Decision{Event: ev, From: txn.Status, To: t.to}

	switch ev {
	case EventContractAccepted, EventContractRejected:
		if err := decideContractResponse(&dec, txn, actor, ev, p); err != nil {
			return Decision{}, err
		}
	case EventPaymentMade:
		if err := decidePayment(&dec, txn, actor, p); err != nil {
			return Decision{}, err
		}
	case EventWorkCompleted:
		if actor.ID != txn.SellerID {
			return Decision{}, fmt.Errorf("%w: only the seller can mark work completed", ErrUnauthorizedActor)
		}
		dec.Notifications = append(dec.Notifications, workCompletedNotification(txn, actor))
	case EventDeliveryConfirmed:
		if actor.ID != txn.BuyerID {
			return Decision{}, fmt.Errorf("%w: only the buyer can confirm delivery", ErrUnauthorizedActor)
		}
		dec.Notifications = append(dec.Notifications, fundsReleasedNotification(txn, actor))
	case EventDisputeRaised:
		if err := decideDisputeRaised(&dec, txn, actor, p); err != nil {
			return Decision{}, err
		}
	case EventDisputeResolved:
		if err := decideDisputeResolved(&dec, txn, actor, p); err != nil {
			return Decision{}, err
		}
	case EventEscalationRequested:
		if err := decideEscalation(&dec, txn, actor, p); err != nil {
			return Decision{}, err
		}
	}

	return dec, nil
}

func decideContractResponse(dec *Decision, txn models.Transaction, actor models.User, ev Event, p Payload) error {
	if p.Contract == nil {
		return guardErr(ev, txn.Status, "no pending contract for transaction %d", txn.ID)
	}
	c := p.Contract
	if c.TransactionID != txn.ID {
		return guardErr(ev, txn.Status, "contract %d belongs to another transaction", c.ID)
	}
	if c.Status != models.ContractPending {
		return guardErr(ev, txn.Status, "contract %d already %s", c.ID, c.Status)
	}
	if actor.ID != c.RecipientID {
		return fmt.Errorf("%w: only the contract recipient can respond", ErrUnauthorizedActor)
	}

	if ev == EventContractAccepted {
		dec.ContractUpdate = &ContractUpdate{ContractID: c.ID, Status: models.ContractAccepted}
		dec.Notifications = append(dec.Notifications, contractAcceptedNotification(txn, *c, actor))
	} else {
		dec.ContractUpdate = &ContractUpdate{ContractID: c.ID, Status: models.ContractRejected}
		dec.Notifications = append(dec.Notifications, contractRejectedNotification(txn, *c, actor))
	}
	return nil
}

func decidePayment(dec *Decision, txn models.Transaction, actor models.User, p Payload) error {
	if actor.ID != txn.BuyerID {
		return fmt.Errorf("%w: only the buyer can make the payment", ErrUnauthorizedActor)
	}
	if p.Amount != txn.Amount {
		return guardErr(EventPaymentMade, txn.Status, "paid %d but transaction amount is %d", p.Amount, txn.Amount)
	}
	dec.Notifications = append(dec.Notifications, paymentReceivedNotification(txn, actor))
	return nil
}

func decideDisputeRaised(dec *Decision, txn models.Transaction, actor models.User, p Payload) error {
	if !txn.IsParty(actor.ID) {
		return ErrUnauthorizedActor
	}
	if p.ActiveDispute != nil {
		return guardErr(EventDisputeRaised, txn.Status, "dispute %d is already active", p.ActiveDispute.ID)
	}
	if p.Reason == "" || p.Description == "" {
		return guardErr(EventDisputeRaised, txn.Status, "reason and description are required")
	}

	dec.CreateDispute = &models.Dispute{
		TransactionID: txn.ID,
		RaisedBy:      actor.ID,
		Reason:        p.Reason,
		Description:   p.Description,
		EvidenceFiles: p.EvidenceFiles,
		Status:        models.DisputeActive,
	}
	n, err := disputeRaisedNotification(txn, actor, p.Reason)
	if err != nil {
		return err
	}
	dec.Notifications = append(dec.Notifications, n)
	return nil
}

func decideDisputeResolved(dec *Decision, txn models.Transaction, actor models.User, p Payload) error {
	// Resolution is accepted from either party (proposal acceptance) or
	// from an arbiter; anyone else is rejected.
	if !txn.IsParty(actor.ID) && !(p.Arbiter && actor.IsAdmin()) {
		return ErrUnauthorizedActor
	}
	if p.ActiveDispute == nil {
		return guardErr(EventDisputeResolved, txn.Status, "no active dispute on transaction %d", txn.ID)
	}
	if p.ResolutionNotes == "" {
		return guardErr(EventDisputeResolved, txn.Status, "resolution notes are required")
	}
	if p.BuyerRefund < 0 || p.SellerRelease < 0 {
		return guardErr(EventDisputeResolved, txn.Status, "apportionment amounts must be non-negative")
	}
	if p.BuyerRefund+p.SellerRelease != txn.Amount {
		return guardErr(EventDisputeResolved, txn.Status,
			"apportionment %d+%d does not conserve transaction amount %d",
			p.BuyerRefund, p.SellerRelease, txn.Amount)
	}

	dec.DisputeUpdate = &DisputeUpdate{
		DisputeID:       p.ActiveDispute.ID,
		Status:          models.DisputeResolved,
		ResolutionNotes: p.ResolutionNotes,
		BuyerRefund:     p.BuyerRefund,
		SellerRelease:   p.SellerRelease,
	}
	dec.Notifications = append(dec.Notifications,
		disputeResolvedNotifications(txn, p.ActiveDispute.ID, p.BuyerRefund, p.SellerRelease, p.ResolutionNotes)...)
	return nil
}

func decideEscalation(dec *Decision, txn models.Transaction, actor models.User, p Payload) error {
	if !txn.IsParty(actor.ID) {
		return ErrUnauthorizedActor
	}
	if p.ActiveDispute == nil || p.ActiveDispute.Status != models.DisputeActive {
		return guardErr(EventEscalationRequested, txn.Status, "no active dispute to escalate on transaction %d", txn.ID)
	}
	if p.Reason == "" {
		return guardErr(EventEscalationRequested, txn.Status, "escalation reason is required")
	}

	dec.DisputeUpdate = &DisputeUpdate{
		DisputeID: p.ActiveDispute.ID,
		Status:    models.DisputeEscalated,
	}
	dec.CreateEscalation = &models.Escalation{
		TransactionID: txn.ID,
		EscalatedBy:   actor.ID,
		Reason:        p.Reason,
		Notes:         p.EscalationNotes,
		EvidenceFiles: p.EvidenceFiles,
		DisputeData:   p.DisputeSnapshot,
		Status:        models.EscalationPending,
	}
	n, err := escalationRaisedNotification(txn, actor, p.Reason)
	if err != nil {
		return err
	}
	dec.Notifications = append(dec.Notifications, n)
	return nil
}
