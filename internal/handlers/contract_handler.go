package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bharosepe/internal/database"
	"bharosepe/internal/lifecycle"
	"bharosepe/internal/models"
)

type CreateContractRequest struct {
	TransactionID uint   `json:"transaction_id" validate:"required"`
	Content       string `json:"content" validate:"required"`
	Terms         string `json:"terms"`
}

type UpdateContractRequest struct {
	Content string `json:"content" validate:"required"`
	Terms   string `json:"terms"`
}

// CreateContract sends the deal's terms to the counterparty. Only one
// pending contract may exist on a transaction at a time.
func CreateContract(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(CreateContractRequest)
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

	var txn models.Transaction
	if err := database.DB.First(&txn, req.TransactionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Transaction not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	recipientID, ok := txn.Counterparty(user.ID)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this transaction",
		})
	}
	if txn.Status != models.TransactionCreated {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Contracts can only be sent while the transaction is newly created",
		})
	}

	var pending int64
	database.DB.Model(&models.Contract{}).
		Where("transaction_id = ? AND status = ?", txn.ID, models.ContractPending).
		Count(&pending)
	if pending > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A pending contract already exists for this transaction",
		})
	}

	contract := models.Contract{
		TransactionID: txn.ID,
		CreatorID:     user.ID,
		RecipientID:   recipientID,
		Content:       req.Content,
		Terms:         req.Terms,
		Status:        models.ContractPending,
	}
	if err := database.DB.Create(&contract).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create contract",
		})
	}

	n := lifecycle.ContractReceivedNotification(txn, contract, user)
	delivered := notifyBestEffort(c.Context(), n, nil)

	body := fiber.Map{
		"message":  "Contract sent to the counterparty",
		"contract": contract,
	}
	if !delivered {
		body["warning"] = "Notification delivery failed, the contract itself was created"
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// UpdateContract lets the creator revise a still-pending contract.
func UpdateContract(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid contract id",
		})
	}

	req := new(UpdateContractRequest)
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

	var contract models.Contract
	if err := database.DB.First(&contract, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contract not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if contract.CreatorID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the contract creator can update it",
		})
	}
	if contract.Status != models.ContractPending {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Only pending contracts can be updated",
		})
	}

	contract.Content = req.Content
	contract.Terms = req.Terms
	if err := database.DB.Save(&contract).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update contract",
		})
	}

	delivered := false
	var txn models.Transaction
	if err := database.DB.First(&txn, contract.TransactionID).Error; err != nil {
		log.Printf("⚠️  contract %d updated but its transaction could not be read for notification: %v", contract.ID, err)
	} else {
		n := lifecycle.ContractUpdatedNotification(txn, contract, user)
		delivered = notifyBestEffort(c.Context(), n, nil)
	}

	body := fiber.Map{
		"message":  "Contract updated",
		"contract": contract,
	}
	if !delivered {
		body["warning"] = "Notification delivery failed, the contract itself was updated"
	}
	return c.JSON(body)
}

// respondToContract drives the accept/reject lifecycle event with the
// contract row loaded for the engine's guards.
func respondToContract(c *fiber.Ctx, ev lifecycle.Event, message string) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid contract id",
		})
	}

	var contract models.Contract
	if err := database.DB.First(&contract, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contract not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	res, err := applier.ApplyEvent(c.Context(), contract.TransactionID, ev, user,
		lifecycle.Payload{Contract: &contract})
	if err != nil {
		return lifecycleError(c, err)
	}
	return transitionResponse(c, message, res)
}

// AcceptContract accepts the pending contract and moves the transaction
// forward to payment.
func AcceptContract(c *fiber.Ctx) error {
	return respondToContract(c, lifecycle.EventContractAccepted, "Contract accepted")
}

// RejectContract rejects the pending contract and closes the transaction.
func RejectContract(c *fiber.Ctx) error {
	return respondToContract(c, lifecycle.EventContractRejected, "Contract rejected")
}

// GetContract returns a contract visible to its creator and recipient.
func GetContract(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid contract id",
		})
	}

	var contract models.Contract
	if err := database.DB.
		Preload("Creator").
		Preload("Recipient").
		First(&contract, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contract not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if contract.CreatorID != userID && contract.RecipientID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this contract",
		})
	}

	return c.JSON(fiber.Map{
		"contract": contract,
	})
}
