package exchange

import (
	"io"
	"strings"

	exchangesvc "flowconnect-backend/internal/application/exchange"
	"flowconnect-backend/internal/middleware"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles exchange-file handlers with dependencies.
type Handlers struct {
	Service  *exchangesvc.Service
	Received *exchangesvc.ReceivedService
}

// Upload POST /api/v1/exchange-files/upload (multipart)
func (h *Handlers) Upload(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.Error(c, "multipart form is required", fiber.StatusBadRequest, nil)
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return response.Error(c, "at least one file is required", fiber.StatusBadRequest, nil)
	}

	in := exchangesvc.UploadInput{
		ReportingPeriod: c.FormValue("reporting_period"),
		IsPos:           c.FormValue("is_pos") == "true",
		IsPot:           c.FormValue("is_pot") == "true",
	}
	for _, raw := range strings.Split(c.FormValue("target_org_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "invalid target_org_ids", fiber.StatusBadRequest, nil)
		}
		in.TargetOrgIDs = append(in.TargetOrgIDs, id)
	}
	if len(in.TargetOrgIDs) == 0 {
		return response.Error(c, "target_org_ids is required", fiber.StatusBadRequest, nil)
	}

	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return response.Error(c, "could not read uploaded file", fiber.StatusBadRequest, nil)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return response.Error(c, "could not read uploaded file", fiber.StatusBadRequest, nil)
		}
		in.Files = append(in.Files, exchangesvc.UploadFile{Name: fh.Filename, Data: data})
	}

	files, err := h.Service.Upload(c.Context(), auth, in)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Files uploaded successfully", files, nil)
}

// ListPending GET /api/v1/exchange-files/pending
func (h *Handlers) ListPending(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	files, err := h.Service.ListPending(c.Context(), auth)
	if err != nil {
		return err
	}
	return response.Success(c, "Pending files fetched successfully", files, nil)
}

// PendingStats GET /api/v1/exchange-files/pending/stats
func (h *Handlers) PendingStats(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	stats, err := h.Service.PendingStats(c.Context(), auth)
	if err != nil {
		return err
	}
	return response.Success(c, "Pending stats fetched successfully", stats, nil)
}

// ListIssues GET /api/v1/exchange-files/:id/issues
func (h *Handlers) ListIssues(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid file id", fiber.StatusBadRequest, nil)
	}
	groups, err := h.Service.ListIssues(c.Context(), auth, fileID)
	if err != nil {
		return err
	}
	return response.Success(c, "Validation issues fetched successfully", groups, nil)
}

// Delete DELETE /api/v1/exchange-files/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid file id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), auth, fileID); err != nil {
		return err
	}
	return response.Success(c, "File deleted successfully", nil, nil)
}

// ListSent GET /api/v1/exchange-files/sent
func (h *Handlers) ListSent(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var filter exchangesvc.SentFilter
	if raw := c.Query("reporting_period"); raw != "" {
		filter.Period = &raw
	}
	for _, raw := range strings.Split(c.Query("target_org_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "invalid target_org_ids", fiber.StatusBadRequest, nil)
		}
		filter.Orgs = append(filter.Orgs, id)
	}
	if raw := c.Query("is_pos"); raw != "" {
		v := raw == "true"
		filter.IsPos = &v
	}
	if raw := c.Query("is_pot"); raw != "" {
		v := raw == "true"
		filter.IsPot = &v
	}
	groups, err := h.Service.ListSentGrouped(c.Context(), auth, filter)
	if err != nil {
		return err
	}
	return response.Success(c, "Sent files fetched successfully", groups, nil)
}

// SendPending POST /api/v1/exchange-files/send
func (h *Handlers) SendPending(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	sent, err := h.Service.SendPending(c.Context(), auth)
	if err != nil {
		return err
	}
	return response.Success(c, "Files sent successfully", fiber.Map{"sent_count": sent}, nil)
}

// ListReceived GET /api/v1/received-files
func (h *Handlers) ListReceived(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var filter exchangesvc.ReceivedFilter
	if raw := c.Query("reporting_period"); raw != "" {
		filter.Period = &raw
	}
	if raw := c.Query("sender_org_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "invalid sender_org_id", fiber.StatusBadRequest, nil)
		}
		filter.SenderOrgID = &id
	}
	files, err := h.Received.List(c.Context(), auth, filter)
	if err != nil {
		return err
	}
	return response.Success(c, "Received files fetched successfully", files, nil)
}

// DownloadReceived POST /api/v1/received-files/:id/download
func (h *Handlers) DownloadReceived(c *fiber.Ctx) error {
	auth := middleware.GetAuth(c)
	if auth == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "invalid file id", fiber.StatusBadRequest, nil)
	}
	url, err := h.Received.Download(c.Context(), auth, fileID)
	if err != nil {
		return err
	}
	return response.Success(c, "Download URL generated successfully", fiber.Map{"url": url}, nil)
}
