package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 10},
		{name: "explicit", query: "page=3&limit=25", wantPage: 3, wantLimit: 25},
		{name: "page only", query: "page=2", wantPage: 2, wantLimit: 10},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "negative limit", query: "limit=-1", wantErr: true},
		{name: "non-numeric", query: "page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/articles?"+tt.query, nil)
			page, limit, err := parsePagination(r)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestWritePageEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writePage(rec, 42, 5, 2, []string{"a", "b"})

	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp struct {
		Success     bool     `json:"success"`
		Count       *int     `json:"count"`
		TotalPages  *int     `json:"totalPages"`
		CurrentPage *int     `json:"currentPage"`
		Data        []string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success")
	}
	if resp.Count == nil || *resp.Count != 42 {
		t.Fatalf("unexpected count")
	}
	if resp.TotalPages == nil || *resp.TotalPages != 5 {
		t.Fatalf("unexpected totalPages")
	}
	if resp.CurrentPage == nil || *resp.CurrentPage != 2 {
		t.Fatalf("unexpected currentPage")
	}
	if len(resp.Data) != 2 {
		t.Fatalf("unexpected data length")
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 404, "Article not found")

	if rec.Code != 404 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected success=false")
	}
	if resp.Message != "Article not found" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestParseFormBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{" true ", true},
		{"false", false},
		{"0", false},
		{"", false},
		{"yes", false},
	}
	for _, tt := range tests {
		if got := parseFormBool(tt.value); got != tt.want {
			t.Errorf("parseFormBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
