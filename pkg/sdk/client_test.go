package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	var gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "golang" {
			t.Errorf("query = %q", req.Query)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			RequestID:    "r-1",
			Results:      []Result{{URL: "https://example.com", Title: "Example", Services: []string{"alpha"}}},
			Statuses:     map[string]ServiceStatus{"alpha": {Status: "ok", ResultCount: 1}},
			TotalResults: 1,
		})
	}))
	defer ts.Close()

	client := New(ts.URL, WithAPIKey("key-1"))
	resp, err := client.Search(context.Background(), &SearchRequest{Query: "golang"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/api/v1/search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer key-1" {
		t.Errorf("auth = %q", gotAuth)
	}
	if resp.TotalResults != 1 || resp.Results[0].Title != "Example" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearch_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"unknown_service","message":"unknown service: nope"}`))
	}))
	defer ts.Close()

	client := New(ts.URL)
	_, err := client.Search(context.Background(), &SearchRequest{Query: "x", Services: []string{"nope"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnknownService(err) {
		t.Errorf("IsUnknownService = false for %v", err)
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != CodeUnknownService {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestSearch_MalformedErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	client := New(ts.URL)
	_, err := client.Search(context.Background(), &SearchRequest{Query: "x"})

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if apiErr.Code != CodeInternalError {
		t.Errorf("code = %q", apiErr.Code)
	}
}

func TestListServices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/services" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"name":"alpha","protocol":"direct","weight":1,"timeout_ms":3000,"suspended":false}]}`))
	}))
	defer ts.Close()

	services, err := New(ts.URL).ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 1 || services[0].Name != "alpha" {
		t.Errorf("services = %+v", services)
	}
}

func TestHealth_Degraded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","checks":{"registry":"ok","cache":"error"}}`))
	}))
	defer ts.Close()

	report, err := New(ts.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if report.Status != "degraded" || report.Checks["cache"] != "error" {
		t.Errorf("report = %+v", report)
	}
}
