package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bharosepe/internal/database"
	"bharosepe/internal/models"
)

type ResolveEscalationRequest struct {
	ResolutionNotes string `json:"resolution_notes" validate:"required"`
}

// ListEscalations lists escalations for arbiter review, optionally
// filtered by status.
func ListEscalations(c *fiber.Ctx) error {
	query := database.DB.
		Preload("Transaction").
		Preload("Escalator").
		Preload("Assignee")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var escalations []models.Escalation
	if err := query.Order("created_at ASC").Find(&escalations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve escalations",
		})
	}

	return c.JSON(fiber.Map{
		"escalations": escalations,
		"count":       len(escalations),
	})
}

// GetEscalation returns one escalation with its frozen dispute snapshot.
// Visible to the transaction's parties and to admins.
func GetEscalation(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid escalation id",
		})
	}

	var escalation models.Escalation
	if err := database.DB.
		Preload("Transaction").
		Preload("Escalator").
		Preload("Assignee").
		First(&escalation, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Escalation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if !escalation.Transaction.IsParty(user.ID) && !user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this escalation",
		})
	}

	return c.JSON(fiber.Map{
		"escalation": escalation,
	})
}

// AssignEscalation claims a pending escalation for the calling admin.
func AssignEscalation(c *fiber.Ctx) error {
	admin, ok := c.Locals("admin_user").(models.User)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin access required",
		})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid escalation id",
		})
	}

	result := database.DB.Model(&models.Escalation{}).
		Where("id = ? AND status = ?", id, models.EscalationPending).
		Updates(map[string]interface{}{
			"status":      models.EscalationInProgress,
			"assigned_to": admin.ID,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign escalation",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Escalation is not pending",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Escalation assigned",
	})
}

// ResolveEscalation closes an in-progress escalation with the arbiter's
// ruling notes. The escrow outcome itself is imposed through the dispute
// resolve endpoint; this records the case file's closure.
func ResolveEscalation(c *fiber.Ctx) error {
	admin, ok := c.Locals("admin_user").(models.User)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin access required",
		})
	}

	req := new(ResolveEscalationRequest)
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
			"error": "Invalid escalation id",
		})
	}

	now := time.Now()
	result := database.DB.Model(&models.Escalation{}).
		Where("id = ? AND status = ? AND assigned_to = ?", id, models.EscalationInProgress, admin.ID).
		Updates(map[string]interface{}{
			"status":           models.EscalationResolved,
			"resolution_notes": req.ResolutionNotes,
			"resolved_at":      now,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve escalation",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Escalation is not in progress under your review",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Escalation resolved",
	})
}
