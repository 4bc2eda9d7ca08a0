package connections

import (
	"encoding/json"

	connsvc "flowconnect-backend/internal/application/connections"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles connection-territory handlers with dependencies.
type Handlers struct {
	Territories *connsvc.TerritoryService
}

// SetTerritories PUT /api/v1/connections/:id/territories
func (h *Handlers) SetTerritories(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	connectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid connection id", fiber.StatusBadRequest, nil)
	}
	var body struct {
		SubdivisionIDs []uuid.UUID `json:"subdivision_ids"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "subdivision_ids is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Territories.SetTerritories(c.Context(), auth.OrgID, connectionID, body.SubdivisionIDs); err != nil {
		return err
	}
	return response.Success(c, "Territories updated successfully", nil, nil)
}

// ListTerritories GET /api/v1/connections/:id/territories
func (h *Handlers) ListTerritories(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	connectionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid connection id", fiber.StatusBadRequest, nil)
	}
	ids, err := h.Territories.ListTerritories(c.Context(), auth.OrgID, connectionID)
	if err != nil {
		return err
	}
	return response.Success(c, "Territories fetched successfully", fiber.Map{"subdivision_ids": ids}, nil)
}
