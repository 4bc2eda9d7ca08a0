package agreements

import (
	"io"

	agreementsvc "flowconnect-backend/internal/application/agreements"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles agreement and alias handlers with dependencies.
type Handlers struct {
	Service *agreementsvc.Service
	Aliases *agreementsvc.AliasService
}

// Upload POST /api/v1/agreements/:connected_org_id (multipart)
func (h *Handlers) Upload(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	connectedOrgID, err := uuid.Parse(c.Params("connected_org_id"))
	if err != nil {
		return response.Error(c, "invalid organization id", fiber.StatusBadRequest, nil)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "file is required", fiber.StatusBadRequest, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return response.Error(c, "could not read uploaded file", fiber.StatusBadRequest, nil)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return response.Error(c, "could not read uploaded file", fiber.StatusBadRequest, nil)
	}

	agreement, err := h.Service.Upload(c.Context(), auth, agreementsvc.UploadInput{
		ConnectedOrgID: connectedOrgID,
		FileName:       fh.Filename,
		Content:        data,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Agreement uploaded successfully", agreement, nil)
}

// Get GET /api/v1/agreements/:connected_org_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	connectedOrgID, err := uuid.Parse(c.Params("connected_org_id"))
	if err != nil {
		return response.Error(c, "invalid organization id", fiber.StatusBadRequest, nil)
	}
	agreement, url, err := h.Service.Get(c.Context(), auth, connectedOrgID)
	if err != nil {
		return err
	}
	if agreement == nil {
		return response.Success(c, "No agreement on file", nil, nil)
	}
	return response.Success(c, "Agreement fetched successfully", fiber.Map{
		"agreement": agreement,
		"url":       url,
	}, nil)
}

// Delete DELETE /api/v1/agreements/:connected_org_id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	connectedOrgID, err := uuid.Parse(c.Params("connected_org_id"))
	if err != nil {
		return response.Error(c, "invalid organization id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), auth, connectedOrgID); err != nil {
		return err
	}
	return response.Success(c, "Agreement deleted successfully", nil, nil)
}

// ImportAliases POST /api/v1/aliases/import (multipart CSV)
func (h *Handlers) ImportAliases(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "file is required", fiber.StatusBadRequest, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return response.Error(c, "could not read uploaded file", fiber.StatusBadRequest, nil)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return response.Error(c, "could not read uploaded file", fiber.StatusBadRequest, nil)
	}

	result, err := h.Aliases.ImportCSV(c.Context(), auth, data)
	if err != nil {
		return err
	}
	return response.Success(c, "Aliases imported", result, nil)
}

// ListAliases GET /api/v1/aliases
func (h *Handlers) ListAliases(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	aliases, err := h.Aliases.List(c.Context(), auth)
	if err != nil {
		return err
	}
	return response.Success(c, "Aliases fetched successfully", aliases, nil)
}

// DeleteAlias DELETE /api/v1/aliases/:id
func (h *Handlers) DeleteAlias(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	aliasID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid alias id", fiber.StatusBadRequest, nil)
	}
	if err := h.Aliases.Delete(c.Context(), auth, aliasID); err != nil {
		return err
	}
	return response.Success(c, "Alias deleted successfully", nil, nil)
}
