package lifecycle

import (
	"encoding/json"
	"fmt"

	"bharosepe/internal/models"
)

// NotificationData is the closed set of per-type notification payloads.
// Each notification type carries exactly one variant; the variant is
// serialized into the notification row's Data column.
type NotificationData interface {
	NotificationType() models.NotificationType
}

type ContractReceivedData struct {
	ContractID    uint   `json:"contract_id"`
	TransactionID uint   `json:"transaction_id"`
	CreatorName   string `json:"creator_name"`
	Amount        int64  `json:"amount"`
}

func (ContractReceivedData) NotificationType() models.NotificationType {
	return models.NotificationContractReceived
}

type ContractAcceptedData struct {
	ContractID    uint   `json:"contract_id"`
	TransactionID uint   `json:"transaction_id"`
	RecipientName string `json:"recipient_name"`
}

func (ContractAcceptedData) NotificationType() models.NotificationType {
	return models.NotificationContractAccepted
}

type ContractRejectedData struct {
	ContractID    uint   `json:"contract_id"`
	TransactionID uint   `json:"transaction_id"`
	RecipientName string `json:"recipient_name"`
}

func (ContractRejectedData) NotificationType() models.NotificationType {
	return models.NotificationContractRejected
}

type ContractUpdatedData struct {
	ContractID    uint   `json:"contract_id"`
	TransactionID uint   `json:"transaction_id"`
	CreatorName   string `json:"creator_name"`
}

func (ContractUpdatedData) NotificationType() models.NotificationType {
	return models.NotificationContractUpdated
}

type PaymentReceivedData struct {
	TransactionID uint   `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	PayerName     string `json:"payer_name"`
}

func (PaymentReceivedData) NotificationType() models.NotificationType {
	return models.NotificationPaymentReceived
}

type WorkCompletedData struct {
	TransactionID uint   `json:"transaction_id"`
	SellerName    string `json:"seller_name"`
}

func (WorkCompletedData) NotificationType() models.NotificationType {
	return models.NotificationWorkCompleted
}

type FundsReleasedData struct {
	TransactionID uint  `json:"transaction_id"`
	Amount        int64 `json:"amount"`
}

func (FundsReleasedData) NotificationType() models.NotificationType {
	return models.NotificationFundsReleased
}

type DisputeRaisedData struct {
	TransactionID uint   `json:"transaction_id"`
	Reason        string `json:"reason"`
	RaisedByName  string `json:"raised_by_name"`
}

func (DisputeRaisedData) NotificationType() models.NotificationType {
	return models.NotificationDisputeRaised
}

type DisputeResolvedData struct {
	TransactionID   uint   `json:"transaction_id"`
	DisputeID       uint   `json:"dispute_id"`
	BuyerRefund     int64  `json:"buyer_refund"`
	SellerRelease   int64  `json:"seller_release"`
	ResolutionNotes string `json:"resolution_notes"`
}

func (DisputeResolvedData) NotificationType() models.NotificationType {
	return models.NotificationDisputeResolved
}

type ProposalData struct {
	DisputeID    uint                `json:"dispute_id"`
	ProposalID   uint                `json:"proposal_id"`
	ProposalType models.ProposalType `json:"proposal_type"`
	Amount       int64               `json:"amount"`
	ActorName    string              `json:"actor_name"`
	notifType    models.NotificationType
}

func (d ProposalData) NotificationType() models.NotificationType { return d.notifType }

type EscalationRaisedData struct {
	TransactionID   uint   `json:"transaction_id"`
	Reason          string `json:"reason"`
	EscalatedByName string `json:"escalated_by_name"`
}

func (EscalationRaisedData) NotificationType() models.NotificationType {
	return models.NotificationEscalationRaised
}

func marshalData(d NotificationData) string {
	b, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func newNotification(recipient uint, sender uint, title, message string, d NotificationData) models.Notification {
	n := models.Notification{
		UserID:  recipient,
		Type:    d.NotificationType(),
		Title:   title,
		Message: message,
		Data:    marshalData(d),
	}
	if sender != 0 {
		s := sender
		n.SenderID = &s
	}
	return n
}

func withRefs(n models.Notification, txnID, contractID uint) models.Notification {
	if txnID != 0 {
		id := txnID
		n.TransactionID = &id
	}
	if contractID != 0 {
		id := contractID
		n.ContractID = &id
	}
	return n
}

// CounterpartyOf resolves the notification recipient for an actor on a
// transaction. The recipient is never the actor; an actor that is neither
// buyer nor seller is rejected.
func CounterpartyOf(txn models.Transaction, actorID uint) (uint, error) {
	cp, ok := txn.Counterparty(actorID)
	if !ok {
		return 0, ErrUnauthorizedActor
	}
	return cp, nil
}

func contractAcceptedNotification(txn models.Transaction, c models.Contract, actor models.User) models.Notification {
	n := newNotification(c.CreatorID, actor.ID,
		"Contract Accepted",
		fmt.Sprintf("%s has accepted your contract for ₹%d", actor.FullName, txn.Amount),
		ContractAcceptedData{ContractID: c.ID, TransactionID: txn.ID, RecipientName: actor.FullName})
	return withRefs(n, txn.ID, c.ID)
}

func contractRejectedNotification(txn models.Transaction, c models.Contract, actor models.User) models.Notification {
	n := newNotification(c.CreatorID, actor.ID,
		"Contract Rejected",
		fmt.Sprintf("%s has rejected your contract for ₹%d", actor.FullName, txn.Amount),
		ContractRejectedData{ContractID: c.ID, TransactionID: txn.ID, RecipientName: actor.FullName})
	return withRefs(n, txn.ID, c.ID)
}

func paymentReceivedNotification(txn models.Transaction, actor models.User) models.Notification {
	n := newNotification(txn.SellerID, actor.ID,
		"Payment Received",
		fmt.Sprintf("%s has paid ₹%d into escrow. You can start the work.", actor.FullName, txn.Amount),
		PaymentReceivedData{TransactionID: txn.ID, Amount: txn.Amount, PayerName: actor.FullName})
	return withRefs(n, txn.ID, 0)
}

func workCompletedNotification(txn models.Transaction, actor models.User) models.Notification {
	n := newNotification(txn.BuyerID, actor.ID,
		"Work Completed",
		fmt.Sprintf("%s has marked the work as completed. Please review and confirm delivery.", actor.FullName),
		WorkCompletedData{TransactionID: txn.ID, SellerName: actor.FullName})
	return withRefs(n, txn.ID, 0)
}

func fundsReleasedNotification(txn models.Transaction, actor models.User) models.Notification {
	n := newNotification(txn.SellerID, actor.ID,
		"Funds Released",
		fmt.Sprintf("%s has confirmed delivery. ₹%d will be released to you.", actor.FullName, txn.Amount),
		FundsReleasedData{TransactionID: txn.ID, Amount: txn.Amount})
	return withRefs(n, txn.ID, 0)
}

func disputeRaisedNotification(txn models.Transaction, actor models.User, reason string) (models.Notification, error) {
	cp, err := CounterpartyOf(txn, actor.ID)
	if err != nil {
		return models.Notification{}, err
	}
	n := newNotification(cp, actor.ID,
		"Dispute Raised",
		fmt.Sprintf("%s has raised a dispute: %s", actor.FullName, reason),
		DisputeRaisedData{TransactionID: txn.ID, Reason: reason, RaisedByName: actor.FullName})
	return withRefs(n, txn.ID, 0), nil
}

// disputeResolvedNotifications addresses both parties; resolution may come
// from an arbiter, so this is the one mapping that does not use the
// counterparty rule.
func disputeResolvedNotifications(txn models.Transaction, disputeID uint, buyerRefund, sellerRelease int64, notes string) []models.Notification {
	data := DisputeResolvedData{
		TransactionID:   txn.ID,
		DisputeID:       disputeID,
		BuyerRefund:     buyerRefund,
		SellerRelease:   sellerRelease,
		ResolutionNotes: notes,
	}
	buyer := newNotification(txn.BuyerID, 0,
		"Dispute Resolved",
		fmt.Sprintf("The dispute has been resolved. ₹%d is refunded to you and ₹%d is released to the seller.", buyerRefund, sellerRelease),
		data)
	seller := newNotification(txn.SellerID, 0,
		"Dispute Resolved",
		fmt.Sprintf("The dispute has been resolved. ₹%d is released to you and ₹%d is refunded to the buyer.", sellerRelease, buyerRefund),
		data)
	return []models.Notification{withRefs(buyer, txn.ID, 0), withRefs(seller, txn.ID, 0)}
}

func escalationRaisedNotification(txn models.Transaction, actor models.User, reason string) (models.Notification, error) {
	cp, err := CounterpartyOf(txn, actor.ID)
	if err != nil {
		return models.Notification{}, err
	}
	n := newNotification(cp, actor.ID,
		"Dispute Escalated",
		fmt.Sprintf("%s has escalated the dispute for arbitration: %s", actor.FullName, reason),
		EscalationRaisedData{TransactionID: txn.ID, Reason: reason, EscalatedByName: actor.FullName})
	return withRefs(n, txn.ID, 0), nil
}

// ContractReceivedNotification is emitted when a contract is first sent to
// the counterparty. Contract creation happens outside the status machine,
// so handlers call this directly.
func ContractReceivedNotification(txn models.Transaction, c models.Contract, creator models.User) models.Notification {
	n := newNotification(c.RecipientID, creator.ID,
		"New Contract Received",
		fmt.Sprintf("%s has sent you a contract for ₹%d. Review and respond.", creator.FullName, txn.Amount),
		ContractReceivedData{ContractID: c.ID, TransactionID: txn.ID, CreatorName: creator.FullName, Amount: txn.Amount})
	return withRefs(n, txn.ID, c.ID)
}

// ContractUpdatedNotification is emitted when the creator edits a pending
// contract.
func ContractUpdatedNotification(txn models.Transaction, c models.Contract, creator models.User) models.Notification {
	n := newNotification(c.RecipientID, creator.ID,
		"Contract Updated",
		fmt.Sprintf("%s has updated the contract. Review the new terms.", creator.FullName),
		ContractUpdatedData{ContractID: c.ID, TransactionID: txn.ID, CreatorName: creator.FullName})
	return withRefs(n, txn.ID, c.ID)
}

// ProposalNotification maps a settlement proposal event to a notification
// for the actor's counterparty.
func ProposalNotification(txn models.Transaction, p models.DisputeProposal, actor models.User, t models.NotificationType) (models.Notification, error) {
	cp, err := CounterpartyOf(txn, actor.ID)
	if err != nil {
		return models.Notification{}, err
	}

	var title, message string
	switch t {
	case models.NotificationProposalCreated:
		title = "Settlement Proposal"
		message = fmt.Sprintf("%s has proposed a settlement (%s, ₹%d)", actor.FullName, p.Type, p.Amount)
	case models.NotificationProposalAccepted:
		title = "Proposal Accepted"
		message = fmt.Sprintf("%s has accepted your settlement proposal", actor.FullName)
	case models.NotificationProposalRejected:
		title = "Proposal Rejected"
		message = fmt.Sprintf("%s has rejected your settlement proposal", actor.FullName)
	default:
		return models.Notification{}, fmt.Errorf("%w: %q is not a proposal notification type", ErrInvalidGuard, t)
	}

	n := newNotification(cp, actor.ID, title, message, ProposalData{
		DisputeID:    p.DisputeID,
		ProposalID:   p.ID,
		ProposalType: p.Type,
		Amount:       p.Amount,
		ActorName:    actor.FullName,
		notifType:    t,
	})
	return withRefs(n, txn.ID, 0), nil
}
