package preferences

import (
	"encoding/json"

	prefsvc "flowconnect-backend/internal/application/preferences"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles organization-preference handlers with dependencies.
type Handlers struct {
	Service *prefsvc.Service
}

// Set PUT /api/v1/preferences/:application/:key
func (h *Handlers) Set(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "invalid request body", fiber.StatusBadRequest, nil)
	}
	pref, err := h.Service.Set(c.Context(), auth.OrgID, c.Params("application"), c.Params("key"), body.Value)
	if err != nil {
		return err
	}
	return response.Success(c, "Preference updated successfully", pref, nil)
}

// Get GET /api/v1/preferences/:application/:key
func (h *Handlers) Get(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	value, err := h.Service.Get(c.Context(), auth.OrgID, c.Params("application"), c.Params("key"))
	if err != nil {
		return err
	}
	return response.Success(c, "Preference fetched successfully", fiber.Map{"value": value}, nil)
}

// ListForApplication GET /api/v1/preferences/:application
func (h *Handlers) ListForApplication(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	prefs, err := h.Service.ListForApplication(c.Context(), auth.OrgID, c.Params("application"))
	if err != nil {
		return err
	}
	return response.Success(c, "Preferences fetched successfully", prefs, nil)
}

// ListGrouped GET /api/v1/preferences
func (h *Handlers) ListGrouped(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	grouped, err := h.Service.ListGrouped(c.Context(), auth.OrgID)
	if err != nil {
		return err
	}
	return response.Success(c, "Preferences fetched successfully", grouped, nil)
}
