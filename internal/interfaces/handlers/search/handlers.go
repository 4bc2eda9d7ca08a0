package search

import (
	searchsvc "flowconnect-backend/internal/application/search"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles partner-search handlers with dependencies.
type Handlers struct {
	Service *searchsvc.Service
}

// Search GET /api/v1/search/connections
func (h *Handlers) Search(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	opts := searchsvc.Options{
		Active:   c.Query("active") == "true",
		Limit:    c.QueryInt("limit"),
		RepFirms: c.Query("type") == "rep_firms",
	}
	if raw := c.Query("is_member"); raw != "" {
		v := raw == "true"
		opts.IsMember = &v
	}
	if raw := c.Query("is_connected"); raw != "" {
		v := raw == "true"
		opts.IsConnected = &v
	}

	results, err := h.Service.SearchForConnections(c.Context(), auth, c.Query("q"), opts)
	if err != nil {
		return err
	}
	return response.Success(c, "Search completed successfully", results, nil)
}
