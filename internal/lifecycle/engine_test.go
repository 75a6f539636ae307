package lifecycle

import (
	"errors"
	"testing"

	"bharosepe/internal/models"
)

var (
	testBuyer  = models.User{ID: 10, FullName: "Asha Verma"}
	testSeller = models.User{ID: 20, FullName: "Ravi Kumar"}
	arbiter    = models.User{ID: 99, FullName: "Ops Arbiter", Role: "admin"}
	outsider   = models.User{ID: 77, FullName: "Nobody"}
)

func testTxn(status models.TransactionStatus) models.Transaction {
	return models.Transaction{
		ID:       1,
		BuyerID:  testBuyer.ID,
		SellerID: testSeller.ID,
		Title:    "Laptop repair",
		Amount:   1000,
		Status:   status,
	}
}

func pendingContract(txn models.Transaction) *models.Contract {
	return &models.Contract{
		ID:            5,
		TransactionID: txn.ID,
		CreatorID:     txn.BuyerID,
		RecipientID:   txn.SellerID,
		Content:       "Repair the laptop",
		Status:        models.ContractPending,
	}
}

func activeDispute(txn models.Transaction, raisedBy uint) *models.Dispute {
	return &models.Dispute{
		ID:            7,
		TransactionID: txn.ID,
		RaisedBy:      raisedBy,
		Reason:        "not_delivered",
		Description:   "nothing arrived",
		Status:        models.DisputeActive,
	}
}

func allStatuses() []models.TransactionStatus {
	return []models.TransactionStatus{
		models.TransactionCreated,
		models.TransactionContractAccepted,
		models.TransactionPaymentMade,
		models.TransactionWorkCompleted,
		models.TransactionCompleted,
		models.TransactionDisputed,
		models.TransactionEscalated,
		models.TransactionContractRejected,
	}
}

// Every (state, event) pair absent from the transition table must come back
// as an invalid guard with an empty decision.
func TestGuardSoundness(t *testing.T) {
	for _, status := range allStatuses() {
		for _, ev := range Events() {
			tr := transitions[ev]
			if statusIn(status, tr.from) {
				continue
			}
			dec, err := Decide(testTxn(status), testBuyer, ev, Payload{})
			if !errors.Is(err, ErrInvalidGuard) {
				t.Errorf("Decide(%s, %s): want ErrInvalidGuard, got %v", status, ev, err)
			}
			if dec.To != "" || len(dec.Notifications) != 0 {
				t.Errorf("Decide(%s, %s): expected empty decision on guard failure", status, ev)
			}
		}
	}

	if _, err := Decide(testTxn(models.TransactionCreated), testBuyer, Event("bogus"), Payload{}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("unknown event: want ErrInvalidGuard, got %v", err)
	}
}

func TestHappyPathMonotonic(t *testing.T) {
	txn := testTxn(models.TransactionCreated)
	c := pendingContract(txn)

	steps := []struct {
		ev        Event
		actor     models.User
		payload   Payload
		want      models.TransactionStatus
		notifyTo  uint
		notifType models.NotificationType
	}{
		{EventContractAccepted, testSeller, Payload{Contract: c}, models.TransactionContractAccepted, testBuyer.ID, models.NotificationContractAccepted},
		{EventPaymentMade, testBuyer, Payload{Amount: 1000}, models.TransactionPaymentMade, testSeller.ID, models.NotificationPaymentReceived},
		{EventDeliveryConfirmed, testBuyer, Payload{}, models.TransactionCompleted, testSeller.ID, models.NotificationFundsReleased},
	}

	for _, step := range steps {
		dec, err := Decide(txn, step.actor, step.ev, step.payload)
		if err != nil {
			t.Fatalf("Decide(%s): %v", step.ev, err)
		}
		if dec.From != txn.Status || dec.To != step.want {
			t.Fatalf("Decide(%s): got %s -> %s, want %s -> %s", step.ev, dec.From, dec.To, txn.Status, step.want)
		}
		if len(dec.Notifications) != 1 {
			t.Fatalf("Decide(%s): want exactly 1 notification, got %d", step.ev, len(dec.Notifications))
		}
		n := dec.Notifications[0]
		if n.UserID != step.notifyTo {
			t.Errorf("Decide(%s): notification addressed to %d, want %d", step.ev, n.UserID, step.notifyTo)
		}
		if n.UserID == step.actor.ID {
			t.Errorf("Decide(%s): notification addressed to the actor", step.ev)
		}
		if n.Type != step.notifType {
			t.Errorf("Decide(%s): notification type %s, want %s", step.ev, n.Type, step.notifType)
		}
		txn.Status = dec.To
	}

	if txn.Status != models.TransactionCompleted {
		t.Fatalf("happy path ended in %s, want completed", txn.Status)
	}
}

func TestContractResponseRequiresRecipient(t *testing.T) {
	txn := testTxn(models.TransactionCreated)
	c := pendingContract(txn)

	// Creator cannot accept their own contract.
	if _, err := Decide(txn, testBuyer, EventContractAccepted, Payload{Contract: c}); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("creator accepting own contract: want ErrUnauthorizedActor, got %v", err)
	}

	// A non-pending contract cannot be answered twice.
	answered := *c
	answered.Status = models.ContractAccepted
	if _, err := Decide(txn, testSeller, EventContractRejected, Payload{Contract: &answered}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("responding to answered contract: want ErrInvalidGuard, got %v", err)
	}

	// Rejection moves to the terminal contract_rejected status.
	dec, err := Decide(txn, testSeller, EventContractRejected, Payload{Contract: c})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if dec.To != models.TransactionContractRejected {
		t.Errorf("reject: got %s, want contract_rejected", dec.To)
	}
	if dec.ContractUpdate == nil || dec.ContractUpdate.Status != models.ContractRejected {
		t.Errorf("reject: missing contract update")
	}
}

func TestPaymentGuards(t *testing.T) {
	txn := testTxn(models.TransactionContractAccepted)

	if _, err := Decide(txn, testSeller, EventPaymentMade, Payload{Amount: 1000}); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("seller paying: want ErrUnauthorizedActor, got %v", err)
	}
	if _, err := Decide(txn, testBuyer, EventPaymentMade, Payload{Amount: 999}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("amount mismatch: want ErrInvalidGuard, got %v", err)
	}
}

func TestDisputeRaised(t *testing.T) {
	txn := testTxn(models.TransactionPaymentMade)

	dec, err := Decide(txn, testBuyer, EventDisputeRaised, Payload{Reason: "not_delivered", Description: "nothing arrived"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.To != models.TransactionDisputed {
		t.Errorf("got %s, want disputed", dec.To)
	}
	d := dec.CreateDispute
	if d == nil || d.RaisedBy != testBuyer.ID || d.Status != models.DisputeActive {
		t.Fatalf("unexpected dispute row: %+v", d)
	}
	if len(dec.Notifications) != 1 || dec.Notifications[0].UserID != testSeller.ID || dec.Notifications[0].Type != models.NotificationDisputeRaised {
		t.Errorf("expected one dispute_raised notification to the seller, got %+v", dec.Notifications)
	}

	// Only one live dispute per transaction.
	if _, err := Decide(txn, testBuyer, EventDisputeRaised, Payload{
		Reason: "x", Description: "y", ActiveDispute: activeDispute(txn, testBuyer.ID),
	}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("second active dispute: want ErrInvalidGuard, got %v", err)
	}

	if _, err := Decide(txn, outsider, EventDisputeRaised, Payload{Reason: "x", Description: "y"}); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("outsider dispute: want ErrUnauthorizedActor, got %v", err)
	}
}

func TestDisputeResolvedConservation(t *testing.T) {
	txn := testTxn(models.TransactionDisputed)
	d := activeDispute(txn, testBuyer.ID)

	if _, err := Decide(txn, arbiter, EventDisputeResolved, Payload{
		ActiveDispute: d, ResolutionNotes: "split", BuyerRefund: 400, SellerRelease: 500, Arbiter: true,
	}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("non-conserving apportionment: want ErrInvalidGuard, got %v", err)
	}

	if _, err := Decide(txn, arbiter, EventDisputeResolved, Payload{
		ActiveDispute: d, BuyerRefund: 400, SellerRelease: 600, Arbiter: true,
	}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("missing notes: want ErrInvalidGuard, got %v", err)
	}

	if _, err := Decide(txn, outsider, EventDisputeResolved, Payload{
		ActiveDispute: d, ResolutionNotes: "n", BuyerRefund: 400, SellerRelease: 600,
	}); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("outsider resolution: want ErrUnauthorizedActor, got %v", err)
	}
}

// The §8-style end to end scenario: dispute on a paid transaction, then an
// arbitrated 400/600 split.
func TestDisputeScenario(t *testing.T) {
	txn := testTxn(models.TransactionPaymentMade)

	dec, err := Decide(txn, testBuyer, EventDisputeRaised, Payload{Reason: "not_delivered", Description: "nothing arrived"})
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	txn.Status = dec.To

	d := activeDispute(txn, testBuyer.ID)
	dec, err = Decide(txn, arbiter, EventDisputeResolved, Payload{
		ActiveDispute:   d,
		ResolutionNotes: "partial refund agreed",
		BuyerRefund:     400,
		SellerRelease:   600,
		Arbiter:         true,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dec.To != models.TransactionCompleted {
		t.Errorf("resolve: got %s, want completed", dec.To)
	}
	du := dec.DisputeUpdate
	if du == nil || du.Status != models.DisputeResolved || du.BuyerRefund+du.SellerRelease != txn.Amount {
		t.Fatalf("resolve: bad dispute update %+v", du)
	}
	if du.ResolutionNotes == "" {
		t.Errorf("resolve: resolution notes not recorded")
	}
	if len(dec.Notifications) != 2 {
		t.Fatalf("resolve: want notifications to both parties, got %d", len(dec.Notifications))
	}
	recipients := map[uint]bool{}
	for _, n := range dec.Notifications {
		recipients[n.UserID] = true
		if n.Type != models.NotificationDisputeResolved {
			t.Errorf("resolve: notification type %s", n.Type)
		}
	}
	if !recipients[testBuyer.ID] || !recipients[testSeller.ID] {
		t.Errorf("resolve: recipients %v, want buyer and seller", recipients)
	}
}

func TestEscalation(t *testing.T) {
	txn := testTxn(models.TransactionDisputed)
	d := activeDispute(txn, testBuyer.ID)

	dec, err := Decide(txn, testSeller, EventEscalationRequested, Payload{
		ActiveDispute:   d,
		Reason:          "no response",
		EscalationNotes: "buyer stopped replying",
		DisputeSnapshot: `{"dispute":{}}`,
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.To != models.TransactionEscalated {
		t.Errorf("got %s, want escalated", dec.To)
	}
	e := dec.CreateEscalation
	if e == nil || e.Status != models.EscalationPending || e.DisputeData != `{"dispute":{}}` {
		t.Fatalf("bad escalation row: %+v", e)
	}
	if dec.DisputeUpdate == nil || dec.DisputeUpdate.Status != models.DisputeEscalated {
		t.Errorf("dispute not marked escalated: %+v", dec.DisputeUpdate)
	}
	if len(dec.Notifications) != 1 || dec.Notifications[0].UserID != testBuyer.ID {
		t.Errorf("expected escalation notification to the buyer, got %+v", dec.Notifications)
	}

	// A dispute that already left active cannot be escalated.
	closed := *d
	closed.Status = models.DisputeResolved
	if _, err := Decide(txn, testSeller, EventEscalationRequested, Payload{ActiveDispute: &closed, Reason: "r"}); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("escalating closed dispute: want ErrInvalidGuard, got %v", err)
	}
}

// Counterparty resolution: for every valid actor the computed recipient is
// the other party, never the actor.
func TestCounterpartyResolution(t *testing.T) {
	txn := testTxn(models.TransactionCreated)

	for _, actor := range []models.User{testBuyer, testSeller} {
		cp, err := CounterpartyOf(txn, actor.ID)
		if err != nil {
			t.Fatalf("CounterpartyOf(%d): %v", actor.ID, err)
		}
		if cp == actor.ID {
			t.Errorf("CounterpartyOf(%d) returned the actor", actor.ID)
		}
		want := txn.SellerID
		if actor.ID == txn.SellerID {
			want = txn.BuyerID
		}
		if cp != want {
			t.Errorf("CounterpartyOf(%d) = %d, want %d", actor.ID, cp, want)
		}
	}

	if _, err := CounterpartyOf(txn, outsider.ID); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("outsider: want ErrUnauthorizedActor, got %v", err)
	}
}

func TestProposalNotificationRecipients(t *testing.T) {
	txn := testTxn(models.TransactionDisputed)
	prop := models.DisputeProposal{ID: 3, DisputeID: 7, ProposedBy: testSeller.ID, Type: models.ProposalRefundPartial, Amount: 400}

	n, err := ProposalNotification(txn, prop, testSeller, models.NotificationProposalCreated)
	if err != nil {
		t.Fatalf("ProposalNotification: %v", err)
	}
	if n.UserID != testBuyer.ID {
		t.Errorf("proposal_created addressed to %d, want buyer %d", n.UserID, testBuyer.ID)
	}

	n, err = ProposalNotification(txn, prop, testBuyer, models.NotificationProposalAccepted)
	if err != nil {
		t.Fatalf("ProposalNotification: %v", err)
	}
	if n.UserID != testSeller.ID {
		t.Errorf("proposal_accepted addressed to %d, want proposer %d", n.UserID, testSeller.ID)
	}

	if _, err := ProposalNotification(txn, prop, outsider, models.NotificationProposalRejected); !errors.Is(err, ErrUnauthorizedActor) {
		t.Errorf("outsider: want ErrUnauthorizedActor, got %v", err)
	}
}
