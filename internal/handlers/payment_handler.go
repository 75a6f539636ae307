package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bharosepe/internal/database"
	"bharosepe/internal/lifecycle"
	"bharosepe/internal/models"
	"bharosepe/internal/services"
)

var razorpayService *services.RazorpayService

// InitRazorpayService initializes the payment gateway client
func InitRazorpayService() {
	razorpayService = services.NewRazorpayService()
}

type CreatePaymentOrderRequest struct {
	TransactionID uint `json:"transaction_id" validate:"required"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// CreatePaymentOrder opens a gateway order for the buyer to pay the full
// transaction amount into escrow.
func CreatePaymentOrder(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(CreatePaymentOrderRequest)
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

	if txn.BuyerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the buyer can pay for this transaction",
		})
	}
	if txn.Status != models.TransactionContractAccepted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Payment requires an accepted contract",
		})
	}

	reference := "PAY-" + uuid.NewString()
	order, err := razorpayService.CreateOrder(txn.Amount, reference)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to create payment order",
		})
	}

	payment := models.Payment{
		TransactionID:  txn.ID,
		PayerID:        user.ID,
		Amount:         txn.Amount,
		Reference:      reference,
		GatewayOrderID: order.ID,
		Status:         models.PaymentPending,
	}
	if err := database.DB.Create(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Payment order created",
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   razorpayService.KeyID,
	})
}

// VerifyPayment validates the gateway callback, marks the payment verified
// and advances the transaction to payment_made.
func VerifyPayment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	req := new(VerifyPaymentRequest)
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

	if !razorpayService.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment signature",
		})
	}

	var payment models.Payment
	if err := database.DB.Where("gateway_order_id = ?", req.OrderID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Payment order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if payment.PayerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This payment order belongs to another user",
		})
	}
	if payment.Status == models.PaymentVerified {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Payment already verified",
		})
	}

	now := time.Now()
	payment.GatewayPaymentID = req.PaymentID
	payment.Status = models.PaymentVerified
	payment.VerifiedAt = &now
	if err := database.DB.Save(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment verification",
		})
	}

	res, err := applier.ApplyEvent(c.Context(), payment.TransactionID,
		lifecycle.EventPaymentMade, user, lifecycle.Payload{Amount: payment.Amount})
	if err != nil {
		// The payment is captured but the transaction did not advance; the
		// record stays verified so support can reconcile.
		return lifecycleError(c, err)
	}
	return transitionResponse(c, "Payment verified, funds held in escrow", res)
}
