package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/schedule"
	"github.com/lodgekey/lodgekey/utils"
)

// SeamProvider is the gateway to a Seam-style lock service: bearer-token
// REST with cursor pagination and loosely-shaped responses.
type SeamProvider struct {
	baseURL                string
	apiKey                 string
	pageLimit              int
	duplicateCodeIsSuccess bool
	client                 *http.Client
	logger                 *utils.Logger
}

type SeamOptions struct {
	BaseURL                string
	APIKey                 string
	PageLimit              int
	Timeout                time.Duration
	DuplicateCodeIsSuccess bool
}

func NewSeamProvider(opts SeamOptions) *SeamProvider {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	pageLimit := opts.PageLimit
	if pageLimit <= 0 {
		pageLimit = 200
	}

	return &SeamProvider{
		baseURL:                strings.TrimRight(opts.BaseURL, "/"),
		apiKey:                 opts.APIKey,
		pageLimit:              pageLimit,
		duplicateCodeIsSuccess: opts.DuplicateCodeIsSuccess,
		client:                 &http.Client{Timeout: timeout},
		logger:                 utils.NewLogger("seam"),
	}
}

type seamResponse struct {
	statusCode int
	body       []byte
}

func (p *SeamProvider) post(ctx context.Context, path string, payload interface{}) (*seamResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return p.do(req)
}

func (p *SeamProvider) get(ctx context.Context, path string, params url.Values) (*seamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	return p.do(req)
}

func (p *SeamProvider) do(req *http.Request) (*seamResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &seamResponse{statusCode: resp.StatusCode, body: body}, nil
}

func (r *seamResponse) ok() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

type listPayload struct {
	DeviceID   string `json:"device_id"`
	Limit      int    `json:"limit"`
	PageCursor string `json:"page_cursor,omitempty"`
}

type pagination struct {
	HasNextPage    bool   `json:"has_next_page"`
	NextPageCursor string `json:"next_page_cursor"`
}

// listEnvelope tolerates the three body shapes the service is known to
// produce: a bare array, an access_codes object, and a data object.
type listEnvelope struct {
	AccessCodes []models.RemoteCode `json:"access_codes"`
	Data        []models.RemoteCode `json:"data"`
	Pagination  *pagination         `json:"pagination"`
}

func decodeListBody(body []byte) ([]models.RemoteCode, *pagination, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var codes []models.RemoteCode
		if err := json.Unmarshal(trimmed, &codes); err != nil {
			return nil, nil, err
		}
		return codes, nil, nil
	}

	var envelope listEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, nil, err
	}
	if envelope.AccessCodes != nil {
		return envelope.AccessCodes, envelope.Pagination, nil
	}
	return envelope.Data, envelope.Pagination, nil
}

// ListCodes pages through every access code on a device. It stops at
// the first failing page and returns what it already collected; the
// loop terminates as soon as the service stops producing a cursor.
func (p *SeamProvider) ListCodes(ctx context.Context, deviceID string) []models.RemoteCode {
	var codes []models.RemoteCode
	pageCursor := ""

	for {
		payload := listPayload{DeviceID: deviceID, Limit: p.pageLimit, PageCursor: pageCursor}

		resp, err := p.post(ctx, "/access_codes/list", payload)
		if err != nil {
			p.logger.Error(ctx, "Failed to list access codes", map[string]interface{}{
				"device_id": deviceID, "error": err.Error(),
			})
			return codes
		}

		// some deployments only expose the list endpoint over GET
		if resp.statusCode == http.StatusNotFound || resp.statusCode == http.StatusMethodNotAllowed {
			params := url.Values{}
			params.Set("device_id", deviceID)
			params.Set("limit", strconv.Itoa(p.pageLimit))
			if pageCursor != "" {
				params.Set("page_cursor", pageCursor)
			}
			resp, err = p.get(ctx, "/access_codes/list", params)
			if err != nil {
				p.logger.Error(ctx, "Failed to list access codes", map[string]interface{}{
					"device_id": deviceID, "error": err.Error(),
				})
				return codes
			}
		}

		if !resp.ok() {
			p.logger.Error(ctx, "Failed to list access codes", map[string]interface{}{
				"device_id": deviceID, "status": resp.statusCode, "body": string(resp.body),
			})
			return codes
		}

		batch, page, err := decodeListBody(resp.body)
		if err != nil {
			p.logger.Error(ctx, "Invalid JSON listing access codes", map[string]interface{}{
				"device_id": deviceID,
			})
			return codes
		}
		codes = append(codes, batch...)

		if page == nil || !page.HasNextPage || page.NextPageCursor == "" {
			return codes
		}
		pageCursor = page.NextPageCursor
	}
}

// structured error shape: {"error": {"type": "...", "message": "..."}}
type errorEnvelope struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func extractErrorType(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return ""
	}
	return envelope.Error.Type
}

// create responses bury the id at any of several levels
type createEnvelope struct {
	AccessCodeID string `json:"access_code_id"`
	ID           string `json:"id"`
	AccessCode   *struct {
		AccessCodeID string `json:"access_code_id"`
		ID           string `json:"id"`
	} `json:"access_code"`
	Data *struct {
		AccessCodeID string `json:"access_code_id"`
		ID           string `json:"id"`
	} `json:"data"`
}

func extractRemoteID(body []byte) string {
	var envelope createEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.AccessCodeID != "" {
		return envelope.AccessCodeID
	}
	if envelope.ID != "" {
		return envelope.ID
	}
	if envelope.AccessCode != nil {
		if envelope.AccessCode.AccessCodeID != "" {
			return envelope.AccessCode.AccessCodeID
		}
		if envelope.AccessCode.ID != "" {
			return envelope.AccessCode.ID
		}
	}
	if envelope.Data != nil {
		if envelope.Data.AccessCodeID != "" {
			return envelope.Data.AccessCodeID
		}
		if envelope.Data.ID != "" {
			return envelope.Data.ID
		}
	}
	return ""
}

// CreateCode provisions a code and classifies the response. Duplicate
// is reported when the structured error type says so, or, as a
// configurable fallback, when a 409/422 body mentions a duplicate
// access code.
func (p *SeamProvider) CreateCode(ctx context.Context, req *models.CreateCodeRequest) *CreateOutcome {
	resp, err := p.post(ctx, "/access_codes/create", req)
	if err != nil {
		return &CreateOutcome{Result: CreateError, Message: fmt.Sprintf("lock service request failed: %v", err)}
	}

	if resp.ok() {
		return &CreateOutcome{
			Result:     CreateSuccess,
			RemoteID:   extractRemoteID(resp.body),
			StatusCode: resp.statusCode,
		}
	}

	message := string(resp.body)

	if extractErrorType(resp.body) == "duplicate_access_code" {
		return &CreateOutcome{Result: CreateDuplicate, StatusCode: resp.statusCode, Message: message}
	}

	if p.duplicateCodeIsSuccess &&
		(resp.statusCode == http.StatusConflict || resp.statusCode == http.StatusUnprocessableEntity) &&
		strings.Contains(strings.ToLower(message), "duplicate access code") {
		return &CreateOutcome{Result: CreateDuplicate, StatusCode: resp.statusCode, Message: message}
	}

	p.logger.Error(ctx, "Lock service create failed", map[string]interface{}{
		"device_id": req.DeviceID, "status": resp.statusCode, "body": message,
	})
	return &CreateOutcome{Result: CreateError, StatusCode: resp.statusCode, Message: message}
}

type deletePayload struct {
	AccessCodeID string `json:"access_code_id"`
	DeviceID     string `json:"device_id,omitempty"`
}

// DeleteCode removes a code. A 404/410/422 whose body indicates the
// code no longer exists counts as success: deleting twice never fails
// the caller.
func (p *SeamProvider) DeleteCode(ctx context.Context, remoteID, deviceID string) error {
	resp, err := p.post(ctx, "/access_codes/delete", deletePayload{AccessCodeID: remoteID, DeviceID: deviceID})
	if err != nil {
		return utils.NewRemoteError("delete access code", 0, err.Error())
	}

	if resp.ok() {
		return nil
	}

	body := strings.ToLower(string(resp.body))
	switch resp.statusCode {
	case http.StatusNotFound, http.StatusGone, http.StatusUnprocessableEntity:
		if strings.Contains(body, "not") {
			p.logger.Info(ctx, "Access code already deleted", map[string]interface{}{
				"access_code_id": remoteID,
			})
			return nil
		}
	}

	p.logger.Error(ctx, "Failed to delete access code", map[string]interface{}{
		"access_code_id": remoteID, "status": resp.statusCode, "body": string(resp.body),
	})
	return utils.NewRemoteError("delete access code", resp.statusCode, string(resp.body))
}

// FindMatching scans a device for a code with the same digits whose
// start and end both fall within tolerance of the desired window.
func (p *SeamProvider) FindMatching(ctx context.Context, deviceID, code string, window schedule.Window, tolerance time.Duration) (*models.RemoteCode, bool) {
	for _, entry := range p.ListCodes(ctx, deviceID) {
		if entry.Code != code {
			continue
		}
		start, ok := schedule.ParseRemoteTime(entry.StartsAt)
		if !ok {
			continue
		}
		end, ok := schedule.ParseRemoteTime(entry.EndsAt)
		if !ok {
			continue
		}
		if !schedule.WithinTolerance(start, window.Start, tolerance) {
			continue
		}
		if !schedule.WithinTolerance(end, window.End, tolerance) {
			continue
		}
		matched := entry
		return &matched, true
	}
	return nil, false
}

// IsAvailable probes the service with a zero-result list call.
func (p *SeamProvider) IsAvailable(ctx context.Context) bool {
	resp, err := p.post(ctx, "/access_codes/list", listPayload{Limit: 1})
	if err != nil {
		return false
	}
	return resp.statusCode < 500
}
