package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bharosepe/internal/database"
	"bharosepe/internal/lifecycle"
	"bharosepe/internal/models"
)

type CreateTransactionRequest struct {
	CounterpartyTag string `json:"counterparty_tag" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=buyer seller"`
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	DeliveryDate    string `json:"delivery_date"`
}

// CreateTransaction opens a new escrow deal. The creator names the
// counterparty by tag and declares their own side of the deal.
func CreateTransaction(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(CreateTransactionRequest)
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

	var counterparty models.User
	if err := database.DB.Where("user_tag = ?", req.CounterpartyTag).First(&counterparty).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No user found with that tag",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}
	if counterparty.ID == user.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot open a transaction with yourself",
		})
	}

	txn := models.Transaction{
		Reference:    "TXN-" + uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Amount:       req.Amount,
		DeliveryDate: req.DeliveryDate,
		Status:       models.TransactionCreated,
	}
	if req.Role == "buyer" {
		txn.BuyerID = user.ID
		txn.SellerID = counterparty.ID
	} else {
		txn.SellerID = user.ID
		txn.BuyerID = counterparty.ID
	}

	if err := database.DB.Create(&txn).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create transaction",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Transaction created successfully",
		"transaction": txn,
	})
}

// GetMyTransactions lists the user's transactions on either side of the
// deal, optionally filtered by status.
func GetMyTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	query := database.DB.
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Preload("Buyer").
		Preload("Seller")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var txns []models.Transaction
	if err := query.Order("created_at DESC").Find(&txns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve transactions",
		})
	}

	return c.JSON(fiber.Map{
		"transactions": txns,
		"count":        len(txns),
	})
}

// GetTransactionByID returns a single transaction visible only to its
// parties and to admins.
func GetTransactionByID(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid transaction id",
		})
	}

	var txn models.Transaction
	if err := database.DB.
		Preload("Buyer").
		Preload("Seller").
		Preload("Disputes").
		First(&txn, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Transaction not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if !txn.IsParty(user.ID) && !user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this transaction",
		})
	}

	var contract models.Contract
	if err := database.DB.
		Where("transaction_id = ?", txn.ID).
		Order("created_at DESC").
		First(&contract).Error; err == nil {
		return c.JSON(fiber.Map{
			"transaction": txn,
			"contract":    contract,
		})
	}

	return c.JSON(fiber.Map{
		"transaction": txn,
	})
}

// applyEvent runs a lifecycle event for the authenticated user and renders
// the outcome.
func applyEvent(c *fiber.Ctx, ev lifecycle.Event, p lifecycle.Payload, message string) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid transaction id",
		})
	}

	res, err := applier.ApplyEvent(c.Context(), uint(id), ev, user, p)
	if err != nil {
		return lifecycleError(c, err)
	}
	return transitionResponse(c, message, res)
}

type ApplyEventRequest struct {
	Event         string   `json:"event" validate:"required"`
	Reason        string   `json:"reason"`
	Description   string   `json:"description"`
	EvidenceFiles []string `json:"evidence_files"`
	Notes         string   `json:"notes"`
}

// ApplyTransactionEvent is the generic lifecycle endpoint. Events that need
// server-side context beyond the request body (contract responses, gateway
// payments) are rejected here and go through their dedicated endpoints.
func ApplyTransactionEvent(c *fiber.Ctx) error {
	req := new(ApplyEventRequest)
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

	switch lifecycle.Event(req.Event) {
	case lifecycle.EventWorkCompleted:
		return applyEvent(c, lifecycle.EventWorkCompleted, lifecycle.Payload{},
			"Work marked as completed")
	case lifecycle.EventDeliveryConfirmed:
		return applyEvent(c, lifecycle.EventDeliveryConfirmed, lifecycle.Payload{},
			"Delivery confirmed, funds released to the seller")
	case lifecycle.EventDisputeRaised:
		return applyEvent(c, lifecycle.EventDisputeRaised, lifecycle.Payload{
			Reason:        req.Reason,
			Description:   req.Description,
			EvidenceFiles: req.EvidenceFiles,
		}, "Dispute raised")
	case lifecycle.EventEscalationRequested:
		return applyEvent(c, lifecycle.EventEscalationRequested, lifecycle.Payload{
			Reason:          req.Reason,
			EscalationNotes: req.Notes,
			EvidenceFiles:   req.EvidenceFiles,
		}, "Dispute escalated for arbitration")
	case lifecycle.EventContractAccepted, lifecycle.EventContractRejected:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Contract responses go through /api/contracts/:id/accept or /reject",
		})
	case lifecycle.EventPaymentMade:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Payments go through /api/payments/order and /api/payments/verify",
		})
	case lifecycle.EventDisputeResolved:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Resolution goes through proposal acceptance or /api/disputes/:id/resolve",
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Unknown event",
	})
}

// MarkWorkCompleted lets the seller flag the work as done and ready for
// the buyer's review.
func MarkWorkCompleted(c *fiber.Ctx) error {
	return applyEvent(c, lifecycle.EventWorkCompleted, lifecycle.Payload{},
		"Work marked as completed")
}

// ConfirmDelivery lets the buyer confirm delivery and release the funds.
// Accepted both before and after the seller marks the work done.
func ConfirmDelivery(c *fiber.Ctx) error {
	return applyEvent(c, lifecycle.EventDeliveryConfirmed, lifecycle.Payload{},
		"Delivery confirmed, funds released to the seller")
}
