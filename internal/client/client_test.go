package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newStubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": "2026-01-01T00:00:00Z"})
	})
	mux.HandleFunc("GET /api/ratings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"templateId": "t1", "averageRating": 4.5, "ratingCount": 2, "downloadCount": 7},
		})
	})
	mux.HandleFunc("GET /api/ratings/t1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userHash") != "u1" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"templateId": "t1", "averageRating": 4.5, "ratingCount": 2,
				"userRating": nil, "userComment": nil, "recentRatings": []interface{}{},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"templateId": "t1", "averageRating": 4.5, "ratingCount": 2,
			"userRating": 5, "userComment": "mine",
			"recentRatings": []map[string]interface{}{
				{"rating": 5, "comment": "mine", "updatedAt": "2026-01-01T00:00:00Z"},
			},
		})
	})
	mux.HandleFunc("POST /api/ratings", func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRatingParams
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be an integer between 1 and 5"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "averageRating": float64(req.Rating), "ratingCount": 1})
	})
	mux.HandleFunc("POST /api/downloads/t1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "downloadCount": 8})
	})
	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL, 3*time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func TestClient_HealthAndStats(t *testing.T) {
	server := newStubServer(t)
	defer server.Close()
	c := newTestClient(t, server.URL)
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("health.Status = %q, want ok", health.Status)
	}

	stats, err := c.ListStats(ctx)
	if err != nil {
		t.Fatalf("list stats: %v", err)
	}
	if len(stats) != 1 || stats[0].TemplateID != "t1" || stats[0].DownloadCount != 7 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestClient_GetTemplate(t *testing.T) {
	server := newStubServer(t)
	defer server.Close()
	c := newTestClient(t, server.URL)

	detail, err := c.GetTemplate(context.Background(), "t1", "u1")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if detail.UserRating == nil || *detail.UserRating != 5 {
		t.Fatalf("userRating = %v, want 5", detail.UserRating)
	}
	if len(detail.RecentRatings) != 1 || detail.RecentRatings[0].Comment != "mine" {
		t.Fatalf("recentRatings = %+v", detail.RecentRatings)
	}

	anon, err := c.GetTemplate(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("get template anonymous: %v", err)
	}
	if anon.UserRating != nil {
		t.Fatalf("anonymous userRating = %v, want nil", anon.UserRating)
	}
}

func TestClient_SubmitRatingAndDownload(t *testing.T) {
	server := newStubServer(t)
	defer server.Close()
	c := newTestClient(t, server.URL)
	ctx := context.Background()

	result, err := c.SubmitRating(ctx, SubmitRatingParams{TemplateID: "t1", UserHash: "u1", Rating: 4})
	if err != nil {
		t.Fatalf("submit rating: %v", err)
	}
	if !result.Success || result.AverageRating != 4 {
		t.Fatalf("result = %+v", result)
	}

	count, err := c.RecordDownload(ctx, "t1")
	if err != nil {
		t.Fatalf("record download: %v", err)
	}
	if count != 8 {
		t.Fatalf("downloadCount = %d, want 8", count)
	}
}

func TestClient_APIError(t *testing.T) {
	server := newStubServer(t)
	defer server.Close()
	c := newTestClient(t, server.URL)

	_, err := c.SubmitRating(context.Background(), SubmitRatingParams{TemplateID: "t1", UserHash: "u1", Rating: 9})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Fatalf("error message should carry the server's body")
	}
}
