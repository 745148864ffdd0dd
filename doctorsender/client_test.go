package doctorsender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateCampaign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/campaigns" {
			t.Errorf("path = %q, want /api/v1/campaigns", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-DS-Account"); got != "acct-1" {
			t.Errorf("X-DS-Account = %q", got)
		}

		var req CampaignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Name != "March Promo" {
			t.Errorf("Name = %q", req.Name)
		}

		json.NewEncoder(w).Encode(CampaignResponse{CampaignID: "ds-42", Status: "draft"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "acct-1", 100)
	resp, err := c.CreateCampaign(context.Background(), CampaignRequest{Name: "March Promo"})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	if resp.CampaignID != "ds-42" {
		t.Errorf("CampaignID = %q, want ds-42", resp.CampaignID)
	}
}

func TestSendBatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key", "acct-1", 100)
	err := c.SendBat(context.Background(), "ds-42", []string{"reviewer@example.com"})
	if err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestScheduleCampaign(t *testing.T) {
	sendAt := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/campaigns/ds-42/schedule" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["send_at"] != "2024-03-20T09:00:00Z" {
			t.Errorf("send_at = %q", body["send_at"])
		}
		json.NewEncoder(w).Encode(CampaignResponse{CampaignID: "ds-42", Status: "scheduled"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "acct-1", 100)
	resp, err := c.ScheduleCampaign(context.Background(), "ds-42", sendAt)
	if err != nil {
		t.Fatalf("ScheduleCampaign: %v", err)
	}
	if resp.Status != "scheduled" {
		t.Errorf("Status = %q, want scheduled", resp.Status)
	}
}

func TestGetStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CampaignStats{CampaignID: "ds-42", Sent: 10000, Opens: 2500})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "acct-1", 100)
	stats, err := c.GetStats(context.Background(), "ds-42")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Sent != 10000 || stats.Opens != 2500 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	// With rps=1 and burst 1, a second immediate call has to wait; a canceled
	// context must abort that wait.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "acct-1", 1)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.HealthCheck(ctx); err == nil {
		t.Fatal("expected rate limiter to abort on expired context")
	}
}
