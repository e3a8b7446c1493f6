package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/scanner"
)

type fakeTrigger struct {
	result   scanner.ScanResult
	provider models.Provider
	id       int
	calls    int
}

func (f *fakeTrigger) TriggerNow(_ context.Context, provider models.Provider, accountID int) scanner.ScanResult {
	f.calls++
	f.provider = provider
	f.id = accountID
	return f.result
}

func TestScanHandler_Trigger(t *testing.T) {
	trigger := &fakeTrigger{result: scanner.ScanResult{
		Success:  true,
		AuditID:  42,
		Duration: 150 * time.Millisecond,
	}}
	h := &ScanHandler{Scheduler: trigger}

	req := requestWithChiURLParams("POST", "/v1/accounts/aws/1/scan", nil,
		map[string]string{"provider": "aws", "id": "1"})
	rr := httptest.NewRecorder()
	h.Trigger(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Trigger status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if trigger.calls != 1 || trigger.provider != models.ProviderAWS || trigger.id != 1 {
		t.Errorf("unexpected trigger call: %+v", trigger)
	}
	var out struct {
		Success bool `json:"success"`
		AuditID int  `json:"audit_id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Success || out.AuditID != 42 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestScanHandler_Trigger_AccountNotFound(t *testing.T) {
	trigger := &fakeTrigger{result: scanner.ScanResult{Error: "account not found"}}
	h := &ScanHandler{Scheduler: trigger}

	req := requestWithChiURLParams("POST", "/v1/accounts/azure/99/scan", nil,
		map[string]string{"provider": "azure", "id": "99"})
	rr := httptest.NewRecorder()
	h.Trigger(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Trigger status: got %d, want 404: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Success || out.Error != "account not found" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestScanHandler_Trigger_StoreFailure(t *testing.T) {
	trigger := &fakeTrigger{result: scanner.ScanResult{Error: "create audit: connection refused"}}
	h := &ScanHandler{Scheduler: trigger}

	req := requestWithChiURLParams("POST", "/v1/accounts/gcp/2/scan", nil,
		map[string]string{"provider": "gcp", "id": "2"})
	rr := httptest.NewRecorder()
	h.Trigger(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Trigger status: got %d, want 502: %s", rr.Code, rr.Body.String())
	}
}

func TestScanHandler_Trigger_InvalidProvider(t *testing.T) {
	trigger := &fakeTrigger{}
	h := &ScanHandler{Scheduler: trigger}

	req := requestWithChiURLParams("POST", "/v1/accounts/onprem/1/scan", nil,
		map[string]string{"provider": "onprem", "id": "1"})
	rr := httptest.NewRecorder()
	h.Trigger(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Trigger status: got %d, want 400", rr.Code)
	}
	if trigger.calls != 0 {
		t.Errorf("trigger should not be called on invalid provider")
	}
}
