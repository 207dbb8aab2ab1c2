package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchMergesAndDeduplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if got := r.URL.Query().Get("categories"); got != "news" {
			t.Errorf("categories = %q, want news", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"query":%q,"number_of_results":2,"results":[
			{"url":"https://example.com/a","title":"A","content":"shared result"},
			{"url":"https://example.com/%s","title":"B","content":"per-query result"}
		]}`, query, query)
	}))
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL))
	output, err := tool.Run(context.Background(), NewInput(NewsCategory, []string{"aapl earnings", "aapl guidance"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// example.com/a appears in both responses and must be kept once.
	if len(output.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(output.Results))
	}
	if output.Results[0].Query != "aapl earnings" {
		t.Errorf("first result query = %q", output.Results[0].Query)
	}
	if output.Category != NewsCategory {
		t.Errorf("category = %q", output.Category)
	}
}

func TestSearchMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"query":"q","number_of_results":3,"results":[
			{"url":"https://example.com/1","title":"1"},
			{"url":"https://example.com/2","title":"2"},
			{"url":"https://example.com/3","title":"3"}
		]}`)
	}))
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL), WithMaxResults(2))
	output, err := tool.Run(context.Background(), NewInput("", []string{"anything"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(output.Results) != 2 {
		t.Errorf("results = %d, want 2", len(output.Results))
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tool := New(WithBaseURL(srv.URL))
	if _, err := tool.Run(context.Background(), NewInput("", []string{"anything"})); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
