package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/schedule"
)

func newTestProvider(server *httptest.Server) *SeamProvider {
	return NewSeamProvider(SeamOptions{
		BaseURL:                server.URL,
		APIKey:                 "seam_test_key",
		PageLimit:              2,
		DuplicateCodeIsSuccess: true,
	})
}

func TestListCodes_PaginatesAcrossCursors(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/access_codes/list" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")

		var payload struct {
			DeviceID   string `json:"device_id"`
			Limit      int    `json:"limit"`
			PageCursor string `json:"page_cursor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode list payload: %v", err)
		}
		if payload.DeviceID != "lock-1" || payload.Limit != 2 {
			t.Errorf("list payload = %+v", payload)
		}

		if payload.PageCursor == "" {
			fmt.Fprint(w, `{
				"access_codes": [{"access_code_id": "rc-1", "code": "5309"}, {"access_code_id": "rc-2", "code": "1234"}],
				"pagination": {"has_next_page": true, "next_page_cursor": "cursor-2"}
			}`)
			return
		}
		if payload.PageCursor != "cursor-2" {
			t.Errorf("page cursor = %q, want cursor-2", payload.PageCursor)
		}
		fmt.Fprint(w, `{
			"access_codes": [{"access_code_id": "rc-3", "code": "9876"}],
			"pagination": {"has_next_page": false}
		}`)
	}))
	defer server.Close()

	codes := newTestProvider(server).ListCodes(context.Background(), "lock-1")

	if len(codes) != 3 {
		t.Fatalf("ListCodes() returned %d codes, want 3", len(codes))
	}
	if codes[0].RemoteID != "rc-1" || codes[2].RemoteID != "rc-3" {
		t.Errorf("codes = %+v", codes)
	}
	if authHeader != "Bearer seam_test_key" {
		t.Errorf("Authorization = %q", authHeader)
	}
}

func TestListCodes_BareArrayBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"access_code_id": "rc-1", "code": "5309"}]`)
	}))
	defer server.Close()

	codes := newTestProvider(server).ListCodes(context.Background(), "lock-1")
	if len(codes) != 1 || codes[0].RemoteID != "rc-1" {
		t.Errorf("ListCodes() = %+v, want one bare-array entry", codes)
	}
}

func TestListCodes_FallsBackToGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("device_id") != "lock-1" {
			t.Errorf("GET device_id = %q", r.URL.Query().Get("device_id"))
		}
		fmt.Fprint(w, `{"data": [{"access_code_id": "rc-1", "code": "5309"}]}`)
	}))
	defer server.Close()

	codes := newTestProvider(server).ListCodes(context.Background(), "lock-1")
	if len(codes) != 1 || codes[0].RemoteID != "rc-1" {
		t.Errorf("ListCodes() = %+v, want entry from GET fallback", codes)
	}
}

func TestListCodes_PartialResultsOnMidPageFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{
				"access_codes": [{"access_code_id": "rc-1", "code": "5309"}],
				"pagination": {"has_next_page": true, "next_page_cursor": "cursor-2"}
			}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	codes := newTestProvider(server).ListCodes(context.Background(), "lock-1")
	if len(codes) != 1 {
		t.Errorf("ListCodes() returned %d codes, want the first page only", len(codes))
	}
}

func createReq() *models.CreateCodeRequest {
	return &models.CreateCodeRequest{
		DeviceID: "lock-1",
		Code:     "5309",
		Name:     "Ada Lovelace",
		StartsAt: "2026-03-01T12:30:00Z",
		EndsAt:   "2026-03-04T13:00:00Z",
	}
}

func TestCreateCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/access_codes/create" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"access_code": {"access_code_id": "rc-new"}}`)
	}))
	defer server.Close()

	outcome := newTestProvider(server).CreateCode(context.Background(), createReq())

	if outcome.Result != CreateSuccess {
		t.Fatalf("CreateCode() result = %v, want success", outcome.Result)
	}
	if outcome.RemoteID != "rc-new" {
		t.Errorf("RemoteID = %q, want nested rc-new", outcome.RemoteID)
	}
}

func TestCreateCode_StructuredDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"type": "duplicate_access_code", "message": "code in use"}}`)
	}))
	defer server.Close()

	outcome := newTestProvider(server).CreateCode(context.Background(), createReq())
	if outcome.Result != CreateDuplicate {
		t.Errorf("CreateCode() result = %v, want duplicate from structured error", outcome.Result)
	}
}

func TestCreateCode_SniffedDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message": "Duplicate access code on device"}`)
	}))
	defer server.Close()

	outcome := newTestProvider(server).CreateCode(context.Background(), createReq())
	if outcome.Result != CreateDuplicate {
		t.Errorf("CreateCode() result = %v, want duplicate from body sniffing", outcome.Result)
	}
}

func TestCreateCode_SniffingDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message": "Duplicate access code on device"}`)
	}))
	defer server.Close()

	provider := NewSeamProvider(SeamOptions{BaseURL: server.URL, APIKey: "k", DuplicateCodeIsSuccess: false})

	outcome := provider.CreateCode(context.Background(), createReq())
	if outcome.Result != CreateError {
		t.Errorf("CreateCode() result = %v, want error with sniffing off", outcome.Result)
	}
}

func TestCreateCode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "internal"}`)
	}))
	defer server.Close()

	outcome := newTestProvider(server).CreateCode(context.Background(), createReq())
	if outcome.Result != CreateError {
		t.Errorf("CreateCode() result = %v, want error", outcome.Result)
	}
	if outcome.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", outcome.StatusCode)
	}
}

func TestDeleteCode_Idempotent(t *testing.T) {
	deleted := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			AccessCodeID string `json:"access_code_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode delete payload: %v", err)
		}
		if deleted[payload.AccessCodeID] {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"message": "access code not found"}}`)
			return
		}
		deleted[payload.AccessCodeID] = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := newTestProvider(server)
	ctx := context.Background()

	if err := provider.DeleteCode(ctx, "rc-1", "lock-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := provider.DeleteCode(ctx, "rc-1", "lock-1"); err != nil {
		t.Errorf("second delete of the same code: %v, want nil", err)
	}
}

func TestDeleteCode_RealFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "permission denied"}`)
	}))
	defer server.Close()

	if err := newTestProvider(server).DeleteCode(context.Background(), "rc-1", "lock-1"); err == nil {
		t.Error("DeleteCode(403) = nil, want error")
	}
}

func TestFindMatching_BothEdgesRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_codes": [
			{"access_code_id": "rc-shifted", "code": "5309", "starts_at": "2026-03-01T12:30:00Z", "ends_at": "2026-03-04T14:00:00Z"},
			{"access_code_id": "rc-match", "code": "5309", "starts_at": "2026-03-01T12:35:00Z", "ends_at": "2026-03-04T12:55:00Z"}
		]}`)
	}))
	defer server.Close()

	window := schedule.Window{
		Start: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC),
	}

	match, found := newTestProvider(server).FindMatching(context.Background(), "lock-1", "5309", window, 15*time.Minute)
	if !found {
		t.Fatal("FindMatching() found = false, want true")
	}
	if match.RemoteID != "rc-match" {
		t.Errorf("match = %q, want rc-match (both edges within tolerance)", match.RemoteID)
	}
}
