package campaigns

import (
	"encoding/json"
	"time"

	campaignsvc "flowconnect-backend/internal/application/campaigns"
	"flowconnect-backend/internal/application/criteria"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles campaign handlers with dependencies.
type Handlers struct {
	Service *campaignsvc.Service
}

type createBody struct {
	Name                     string             `json:"name"`
	RecipientListType        string             `json:"recipient_list_type"`
	EmailSubject             string             `json:"email_subject"`
	EmailBody                string             `json:"email_body"`
	AiPersonalizationEnabled bool               `json:"ai_personalization_enabled"`
	SendPace                 string             `json:"send_pace"`
	MaxEmailsPerDay          *int               `json:"max_emails_per_day"`
	ScheduledAt              *time.Time         `json:"scheduled_at"`
	SendImmediately          bool               `json:"send_immediately"`
	ContactIDs               []uuid.UUID        `json:"contact_ids"`
	Criteria                 *criteria.Criteria `json:"criteria"`
}

// Create POST /api/v1/campaigns
func (h *Handlers) Create(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body createBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "invalid request body", fiber.StatusBadRequest, nil)
	}
	if body.Name == "" {
		return response.Error(c, "name is required", fiber.StatusBadRequest, nil)
	}

	campaign, err := h.Service.Create(c.Context(), auth, campaignsvc.CreateInput{
		Name:                     body.Name,
		RecipientListType:        body.RecipientListType,
		EmailSubject:             body.EmailSubject,
		EmailBody:                body.EmailBody,
		AiPersonalizationEnabled: body.AiPersonalizationEnabled,
		SendPace:                 body.SendPace,
		MaxEmailsPerDay:          body.MaxEmailsPerDay,
		ScheduledAt:              body.ScheduledAt,
		SendImmediately:          body.SendImmediately,
		StaticContactIDs:         body.ContactIDs,
		Criteria:                 body.Criteria,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Campaign created successfully", campaign, nil)
}

// List GET /api/v1/campaigns
func (h *Handlers) List(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaigns, err := h.Service.List(c.Context(), auth)
	if err != nil {
		return err
	}
	return response.Success(c, "Campaigns fetched successfully", campaigns, nil)
}

// Get GET /api/v1/campaigns/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	campaign, err := h.Service.Get(c.Context(), auth, campaignID)
	if err != nil {
		return err
	}
	return response.Success(c, "Campaign fetched successfully", campaign, nil)
}

// Update PATCH /api/v1/campaigns/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return response.Error(c, "invalid request body", fiber.StatusBadRequest, nil)
	}
	campaign, err := h.Service.Update(c.Context(), auth, campaignID, fields)
	if err != nil {
		return err
	}
	return response.Success(c, "Campaign updated successfully", campaign, nil)
}

// Delete DELETE /api/v1/campaigns/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), auth, campaignID); err != nil {
		return err
	}
	return response.Success(c, "Campaign deleted successfully", nil, nil)
}

func (h *Handlers) transition(c *fiber.Ctx, do func(*fiber.Ctx, uuid.UUID) error, message string) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	if err := do(c, campaignID); err != nil {
		return err
	}
	return response.Success(c, message, nil, nil)
}

// PreviewCriteria POST /api/v1/campaigns/preview-criteria
func (h *Handlers) PreviewCriteria(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Criteria   *criteria.Criteria `json:"criteria"`
		SampleSize int                `json:"sample_size"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil || body.Criteria == nil {
		return response.Error(c, "criteria is required", fiber.StatusBadRequest, nil)
	}
	preview, err := h.Service.PreviewCriteria(c.Context(), auth, body.Criteria, body.SampleSize)
	if err != nil {
		return err
	}
	return response.Success(c, "Criteria evaluated successfully", preview, nil)
}

// Start POST /api/v1/campaigns/:id/start
func (h *Handlers) Start(c *fiber.Ctx) error {
	return h.transition(c, func(c *fiber.Ctx, id uuid.UUID) error {
		return h.Service.Start(c.Context(), middleware.GetAuth(c), id)
	}, "Campaign started successfully")
}

// Pause POST /api/v1/campaigns/:id/pause
func (h *Handlers) Pause(c *fiber.Ctx) error {
	return h.transition(c, func(c *fiber.Ctx, id uuid.UUID) error {
		return h.Service.Pause(c.Context(), middleware.GetAuth(c), id)
	}, "Campaign paused successfully")
}

// Resume POST /api/v1/campaigns/:id/resume
func (h *Handlers) Resume(c *fiber.Ctx) error {
	return h.transition(c, func(c *fiber.Ctx, id uuid.UUID) error {
		return h.Service.Resume(c.Context(), middleware.GetAuth(c), id)
	}, "Campaign resumed successfully")
}

// Refresh POST /api/v1/campaigns/:id/refresh-recipients
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	added, err := h.Service.RefreshDynamicRecipients(c.Context(), auth, campaignID)
	if err != nil {
		return err
	}
	return response.Success(c, "Recipients refreshed successfully", fiber.Map{"added_count": added}, nil)
}

// Status GET /api/v1/campaigns/:id/status
func (h *Handlers) Status(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	status, err := h.Service.Status(c.Context(), auth, campaignID)
	if err != nil {
		return err
	}
	return response.Success(c, "Sending status fetched successfully", status, nil)
}

// SendBatch POST /api/v1/campaigns/:id/send-batch
func (h *Handlers) SendBatch(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	result, err := h.Service.SendBatch(c.Context(), auth, campaignID)
	if err != nil {
		return err
	}
	return response.Success(c, "Batch processed", result, nil)
}

// SendTest POST /api/v1/campaigns/:id/send-test
func (h *Handlers) SendTest(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid campaign id", fiber.StatusBadRequest, nil)
	}
	var body struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil || body.Address == "" {
		return response.Error(c, "address is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.SendTestEmail(c.Context(), auth, campaignID, body.Address); err != nil {
		return err
	}
	return response.Success(c, "Test email sent successfully", nil, nil)
}
