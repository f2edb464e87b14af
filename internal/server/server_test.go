package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const body = `{
  "criteria": {"min_words": 2, "required_keywords": ["news"], "keyword_mode": "any"},
  "records": {"data": [
    {"id": "1", "text": "Breaking NEWS tonight", "public_metrics": {"reply_count": 3}},
    {"id": "2", "text": "news", "public_metrics": {"reply_count": 50}},
    {"id": "3", "text": "more news here", "created_at": "2024-03-01T10:00:00Z", "public_metrics": {"reply_count": 10}},
    {"id": "4", "text": 17}
  ]}
}`

func post(t *testing.T, h http.Handler, path, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndMetrics(t *testing.T) {
	h := New(Options{}).Handler()
	for _, path := range []string{"/health", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rr.Code)
		}
	}
}

func TestFilterEndpoint(t *testing.T) {
	rr := post(t, New(Options{}).Handler(), "/v1/filter", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Count   int `json:"count"`
		Skipped []struct {
			Index int    `json:"index"`
			Error string `json:"error"`
		} `json:"skipped"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 || len(resp.Records) != 2 {
		t.Fatalf("count %d records %d", resp.Count, len(resp.Records))
	}
	if resp.Records[0]["id"] != "3" || resp.Records[1]["id"] != "1" {
		t.Fatalf("wrong order: %v", resp.Records)
	}
	if resp.Records[0]["created_date"] != "2024-03-01" || resp.Records[1]["created_date"] != "unknown" {
		t.Fatalf("created_date: %v", resp.Records)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0].Index != 3 {
		t.Fatalf("skipped %+v", resp.Skipped)
	}
}

func TestExportEndpoint(t *testing.T) {
	rr := post(t, New(Options{}).Handler(), "/v1/export/txt", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="filtered_tweets.txt"` {
		t.Fatalf("content disposition %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "Tweet 1:\nmore news here\n") {
		t.Fatalf("body %q", rr.Body.String())
	}

	rr = post(t, New(Options{}).Handler(), "/v1/export/pdf", body)
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "%PDF-") {
		t.Fatalf("pdf export status %d", rr.Code)
	}

	rr = post(t, New(Options{}).Handler(), "/v1/export/docx", body)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown format status %d", rr.Code)
	}
}

func TestBadRequests(t *testing.T) {
	h := New(Options{}).Handler()
	cases := map[string]string{
		"not json":      `{"criteria":`,
		"bad criteria":  `{"criteria":{"keyword_mode":"xor"},"records":[]}`,
		"bad date":      `{"criteria":{"from_date":"March"},"records":[]}`,
		"no records":    `{"criteria":{}}`,
		"records shape": `{"records":{"tweets":[]}}`,
	}
	for name, payload := range cases {
		rr := post(t, h, "/v1/filter", payload)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", name, rr.Code)
		}
		var e map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e["error"] == "" {
			t.Fatalf("%s: error body %q", name, rr.Body.String())
		}
	}
}

func TestBodyLimit(t *testing.T) {
	h := New(Options{MaxBodyBytes: 64}).Handler()
	rr := post(t, h, "/v1/filter", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := New(Options{RPS: 0.001, Burst: 1}).Handler()
	if rr := post(t, h, "/v1/filter", `{"records":[]}`); rr.Code != http.StatusOK {
		t.Fatalf("first request status %d", rr.Code)
	}
	rr := post(t, h, "/v1/filter", `{"records":[]}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	// health is not rate limited
	hr := httptest.NewRecorder()
	h.ServeHTTP(hr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if hr.Code != http.StatusOK {
		t.Fatalf("health status %d", hr.Code)
	}
}
