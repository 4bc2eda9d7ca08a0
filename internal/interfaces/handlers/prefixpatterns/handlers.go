package prefixpatterns

import (
	"encoding/json"

	prefixsvc "flowconnect-backend/internal/application/prefixpatterns"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles prefix-pattern handlers with dependencies.
type Handlers struct {
	Service *prefixsvc.Service
}

type patternBody struct {
	Name string `json:"name"`
}

// Create POST /api/v1/prefix-patterns
func (h *Handlers) Create(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body patternBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "name is required", fiber.StatusBadRequest, nil)
	}
	pattern, err := h.Service.Create(c.Context(), auth, body.Name)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Prefix pattern created successfully", pattern, nil)
}

// List GET /api/v1/prefix-patterns
func (h *Handlers) List(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	patterns, err := h.Service.List(c.Context(), auth)
	if err != nil {
		return err
	}
	return response.Success(c, "Prefix patterns fetched successfully", patterns, nil)
}

// Update PATCH /api/v1/prefix-patterns/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	patternID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid pattern id", fiber.StatusBadRequest, nil)
	}
	var body patternBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "name is required", fiber.StatusBadRequest, nil)
	}
	pattern, err := h.Service.Update(c.Context(), auth, patternID, body.Name)
	if err != nil {
		return err
	}
	return response.Success(c, "Prefix pattern updated successfully", pattern, nil)
}

// Delete DELETE /api/v1/prefix-patterns/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	patternID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid pattern id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), auth, patternID); err != nil {
		return err
	}
	return response.Success(c, "Prefix pattern deleted successfully", nil, nil)
}
