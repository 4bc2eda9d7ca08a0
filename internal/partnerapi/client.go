package partnerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flowconnect-backend/internal/pkg/apperr"
)

// Client is the ExternalPartnerApi capability: a thin JSON POST client whose
// status codes are mapped onto the error taxonomy.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// Post sends body as JSON and decodes the response. Non-2xx statuses become
// taxonomy errors: 401/403 Unauthorized, 404 NotFound, 409 Conflict, other
// 4xx/5xx RemoteApi.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.ResourceFailure("RemoteApi", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	_ = json.Unmarshal(respBody, &decoded)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return decoded, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Authorization("Unauthorized", "partner api rejected credentials")
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFound("NotFound", "partner api: %s not found", path)
	case resp.StatusCode == http.StatusConflict:
		return nil, apperr.Conflict("Conflict", "partner api conflict on %s", path)
	case resp.StatusCode < 500:
		return nil, apperr.ResourceFailure("RemoteApi", fmt.Errorf("partner api status %d: %s", resp.StatusCode, remoteMessage(decoded, respBody)))
	default:
		return nil, apperr.ResourceFailure("RemoteApi", fmt.Errorf("partner api status %d", resp.StatusCode))
	}
}

func remoteMessage(decoded map[string]interface{}, raw []byte) string {
	if decoded != nil {
		if msg, ok := decoded["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := decoded["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return string(raw)
}
