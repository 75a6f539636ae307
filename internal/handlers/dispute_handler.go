package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bharosepe/internal/database"
	"bharosepe/internal/lifecycle"
	"bharosepe/internal/models"
)

type RaiseDisputeRequest struct {
	TransactionID uint     `json:"transaction_id" validate:"required"`
	Reason        string   `json:"reason" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	EvidenceFiles []string `json:"evidence_files"`
}

type SendMessageRequest struct {
	Body        string `json:"body" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text file image"`
	FileURL     string `json:"file_url"`
	FileName    string `json:"file_name"`
}

type CreateProposalRequest struct {
	Type   models.ProposalType `json:"type" validate:"required,oneof=release_full release_partial refund_full refund_partial"`
	Amount int64               `json:"amount" validate:"required,gt=0"`
}

type ResolveDisputeRequest struct {
	BuyerRefund     int64  `json:"buyer_refund" validate:"gte=0"`
	SellerRelease   int64  `json:"seller_release" validate:"gte=0"`
	ResolutionNotes string `json:"resolution_notes" validate:"required"`
}

type EscalateDisputeRequest struct {
	Reason        string   `json:"reason" validate:"required"`
	Notes         string   `json:"notes"`
	EvidenceFiles []string `json:"evidence_files"`
}

// RaiseDispute opens a dispute on a transaction and freezes its escrow.
func RaiseDispute(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(RaiseDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	res, err := applier.ApplyEvent(c.Context(), req.TransactionID,
		lifecycle.EventDisputeRaised, user, lifecycle.Payload{
			Reason:        req.Reason,
			Description:   req.Description,
			EvidenceFiles: req.EvidenceFiles,
		})
	if err != nil {
		return lifecycleError(c, err)
	}

	body := fiber.Map{
		"message": "Dispute raised",
		"status":  res.Status,
	}
	if res.Decision.CreateDispute != nil {
		body["dispute"] = res.Decision.CreateDispute
	}
	if res.SideEffectErr != nil {
		body["warning"] = "Notification delivery failed, the dispute itself was raised"
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// GetMyDisputes lists disputes on transactions where the user is a party.
func GetMyDisputes(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var disputes []models.Dispute
	if err := database.DB.
		Joins("JOIN transactions ON transactions.id = disputes.transaction_id").
		Where("transactions.buyer_id = ? OR transactions.seller_id = ?", userID, userID).
		Preload("Transaction").
		Preload("Raiser").
		Order("disputes.created_at DESC").
		Find(&disputes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve disputes",
		})
	}

	return c.JSON(fiber.Map{
		"disputes": disputes,
		"count":    len(disputes),
	})
}

// loadDisputeForParty fetches the dispute and checks the caller is a party
// to its transaction (or an admin). Returns fiber's error response directly
// on failure.
func loadDisputeForParty(c *fiber.Ctx, user models.User, preloads ...string) (models.Dispute, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid dispute id",
		})
		return models.Dispute{}, false
	}

	query := database.DB.Preload("Transaction")
	for _, p := range preloads {
		query = query.Preload(p)
	}

	var dispute models.Dispute
	if err := query.First(&dispute, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Dispute not found",
			})
			return models.Dispute{}, false
		}
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
		return models.Dispute{}, false
	}

	if !dispute.Transaction.IsParty(user.ID) && !user.IsAdmin() {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this dispute",
		})
		return models.Dispute{}, false
	}

	return dispute, true
}

// GetDisputeByID returns the dispute with its conversation and proposals.
func GetDisputeByID(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	dispute, ok := loadDisputeForParty(c, user, "Raiser", "Messages", "Messages.Sender", "Proposals")
	if !ok {
		return nil
	}

	return c.JSON(fiber.Map{
		"dispute": dispute,
	})
}

// SendDisputeMessage appends a message to an active dispute's conversation
// and pushes it to both parties' streams.
func SendDisputeMessage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(SendMessageRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	dispute, ok := loadDisputeForParty(c, user)
	if !ok {
		return nil
	}
	if dispute.Status != models.DisputeActive {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Messages can only be sent on an active dispute",
		})
	}

	msgType := models.MessageType(req.MessageType)
	if msgType == "" {
		msgType = models.MessageText
	}

	msg := models.DisputeMessage{
		DisputeID:   dispute.ID,
		SenderID:    user.ID,
		Body:        req.Body,
		MessageType: msgType,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send message",
		})
	}

	notifier.PublishDisputeMessage(
		[]uint{dispute.Transaction.BuyerID, dispute.Transaction.SellerID}, msg)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "Message sent",
		"dispute_message": msg,
	})
}

// GetDisputeMessages returns the conversation in creation order.
func GetDisputeMessages(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	dispute, ok := loadDisputeForParty(c, user)
	if !ok {
		return nil
	}

	var messages []models.DisputeMessage
	if err := database.DB.
		Where("dispute_id = ?", dispute.ID).
		Preload("Sender").
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve messages",
		})
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// CreateProposal records a structured settlement offer on an active
// dispute. The amount is validated against the transaction amount up front
// so a proposal that could never settle is rejected immediately.
func CreateProposal(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(CreateProposalRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	dispute, ok := loadDisputeForParty(c, user)
	if !ok {
		return nil
	}
	if dispute.Status != models.DisputeActive {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Proposals can only be made on an active dispute",
		})
	}

	if _, _, err := lifecycle.Apportion(req.Type, req.Amount, dispute.Transaction.Amount); err != nil {
		return lifecycleError(c, err)
	}

	proposal := models.DisputeProposal{
		DisputeID:  dispute.ID,
		ProposedBy: user.ID,
		Type:       req.Type,
		Amount:     req.Amount,
		Status:     models.ProposalProposed,
	}
	if err := database.DB.Create(&proposal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create proposal",
		})
	}

	n, nerr := lifecycle.ProposalNotification(dispute.Transaction, proposal, user,
		models.NotificationProposalCreated)
	delivered := notifyBestEffort(c.Context(), n, nerr)

	body := fiber.Map{
		"message":  "Proposal created",
		"proposal": proposal,
	}
	if !delivered {
		body["warning"] = "Notification delivery failed, the proposal itself was created"
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// respondedUpdateFailed reports whether a guarded proposal-status update
// wrote nothing, through either a database error or a lost race on the
// proposed status.
func respondedUpdateFailed(err error, rowsAffected int64) bool {
	return err != nil || rowsAffected == 0
}

// loadProposal fetches a proposal together with its dispute and transaction.
func loadProposal(c *fiber.Ctx) (models.DisputeProposal, models.Dispute, bool) {
	id, err := c.ParamsInt("proposal_id")
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid proposal id",
		})
		return models.DisputeProposal{}, models.Dispute{}, false
	}

	var proposal models.DisputeProposal
	if err := database.DB.First(&proposal, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Proposal not found",
			})
			return models.DisputeProposal{}, models.Dispute{}, false
		}
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
		return models.DisputeProposal{}, models.Dispute{}, false
	}

	var dispute models.Dispute
	if err := database.DB.Preload("Transaction").First(&dispute, proposal.DisputeID).Error; err != nil {
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
		return models.DisputeProposal{}, models.Dispute{}, false
	}

	return proposal, dispute, true
}

// AcceptProposal lets the counterparty accept a settlement offer. The
// acceptance resolves the dispute and completes the transaction with the
// proposal's apportionment; the proposal row is marked accepted only after
// the transition commits.
func AcceptProposal(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	proposal, dispute, ok := loadProposal(c)
	if !ok {
		return nil
	}

	if !dispute.Transaction.IsParty(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this dispute",
		})
	}
	if proposal.ProposedBy == user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You cannot accept your own proposal",
		})
	}
	if proposal.Status != models.ProposalProposed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Proposal has already been responded to",
		})
	}

	buyerRefund, sellerRelease, err := lifecycle.Apportion(
		proposal.Type, proposal.Amount, dispute.Transaction.Amount)
	if err != nil {
		return lifecycleError(c, err)
	}

	res, err := applier.ApplyEvent(c.Context(), dispute.TransactionID,
		lifecycle.EventDisputeResolved, user, lifecycle.Payload{
			ResolutionNotes: lifecycle.SettlementNotes(proposal.Type, buyerRefund, sellerRelease),
			BuyerRefund:     buyerRefund,
			SellerRelease:   sellerRelease,
		})
	if err != nil {
		return lifecycleError(c, err)
	}

	now := time.Now()
	result := database.DB.Model(&models.DisputeProposal{}).
		Where("id = ? AND status = ?", proposal.ID, models.ProposalProposed).
		Updates(map[string]interface{}{
			"status":       models.ProposalAcceptedStatus,
			"responded_at": now,
		})
	if respondedUpdateFailed(result.Error, result.RowsAffected) {
		// The resolution is committed; a proposal row left in proposed
		// contradicts the resolved dispute and needs operator reconciling.
		log.Printf("⚠️  proposal %d not marked accepted after dispute %d resolved: err=%v rows=%d",
			proposal.ID, dispute.ID, result.Error, result.RowsAffected)
	}

	n, nerr := lifecycle.ProposalNotification(dispute.Transaction, proposal, user,
		models.NotificationProposalAccepted)
	if !notifyBestEffort(c.Context(), n, nerr) && res.SideEffectErr == nil {
		res.SideEffectErr = lifecycle.ErrSideEffectFailure
	}

	return transitionResponse(c, "Proposal accepted, dispute resolved", res)
}

// RejectProposal lets the counterparty decline a settlement offer. The
// dispute stays active.
func RejectProposal(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	proposal, dispute, ok := loadProposal(c)
	if !ok {
		return nil
	}

	if !dispute.Transaction.IsParty(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this dispute",
		})
	}
	if proposal.ProposedBy == user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You cannot reject your own proposal",
		})
	}

	now := time.Now()
	result := database.DB.Model(&models.DisputeProposal{}).
		Where("id = ? AND status = ?", proposal.ID, models.ProposalProposed).
		Updates(map[string]interface{}{
			"status":       models.ProposalRejectedStatus,
			"responded_at": now,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reject proposal",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Proposal has already been responded to",
		})
	}

	n, nerr := lifecycle.ProposalNotification(dispute.Transaction, proposal, user,
		models.NotificationProposalRejected)
	delivered := notifyBestEffort(c.Context(), n, nerr)

	body := fiber.Map{
		"message": "Proposal rejected",
	}
	if !delivered {
		body["warning"] = "Notification delivery failed, the proposal itself was rejected"
	}
	return c.JSON(body)
}

// ResolveDispute is the arbiter path: an admin imposes an apportionment
// directly, without an accepted proposal.
func ResolveDispute(c *fiber.Ctx) error {
	admin, ok := c.Locals("admin_user").(models.User)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin access required",
		})
	}

	req := new(ResolveDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid dispute id",
		})
	}

	var dispute models.Dispute
	if err := database.DB.First(&dispute, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Dispute not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	res, err := applier.ApplyEvent(c.Context(), dispute.TransactionID,
		lifecycle.EventDisputeResolved, admin, lifecycle.Payload{
			ResolutionNotes: req.ResolutionNotes,
			BuyerRefund:     req.BuyerRefund,
			SellerRelease:   req.SellerRelease,
			Arbiter:         true,
		})
	if err != nil {
		return lifecycleError(c, err)
	}
	return transitionResponse(c, "Dispute resolved", res)
}

// EscalateDispute hands the dispute to arbitration with a frozen snapshot
// of its conversation and proposals.
func EscalateDispute(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(EscalateDisputeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid dispute id",
		})
	}

	var dispute models.Dispute
	if err := database.DB.First(&dispute, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Dispute not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	res, err := applier.ApplyEvent(c.Context(), dispute.TransactionID,
		lifecycle.EventEscalationRequested, user, lifecycle.Payload{
			Reason:          req.Reason,
			EscalationNotes: req.Notes,
			EvidenceFiles:   req.EvidenceFiles,
		})
	if err != nil {
		return lifecycleError(c, err)
	}

	body := fiber.Map{
		"message": "Dispute escalated for arbitration",
		"status":  res.Status,
	}
	if res.Decision.CreateEscalation != nil {
		body["escalation"] = res.Decision.CreateEscalation
	}
	if res.SideEffectErr != nil {
		body["warning"] = "Notification delivery failed, the escalation itself was raised"
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}
