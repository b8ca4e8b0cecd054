package news

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListSendsFilters(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/news" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(Page{
			Total: 1, Page: 2, PageSize: 100,
			Items: []Article{{ID: 7, Title: "Chips", URL: "https://example.com/7"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	page, err := c.List(context.Background(), Query{
		Text:     "chips",
		Category: "technology",
		From:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Page:     2,
		PageSize: 500,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != 7 {
		t.Fatalf("unexpected page: %+v", page)
	}

	want := map[string]string{
		"q":         "chips",
		"category":  "technology",
		"date_from": "2024-05-01T00:00:00Z",
		"page":      "2",
		"page_size": "100",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s: expected %q, got %q", k, v, got[k])
		}
	}
	if _, ok := got["date_to"]; ok {
		t.Errorf("expected no date_to param")
	}
}

func TestListOmitsAllCategory(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		w.Write([]byte(`{"total":0,"page":1,"page_size":20,"items":[]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).List(context.Background(), Query{Category: "all"}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if raw != "page=1&page_size=20" {
		t.Errorf("unexpected query %q", raw)
	}
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Article not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Get(context.Background(), 3)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPublished(t *testing.T) {
	cases := map[string]bool{
		"2024-05-01T10:30:00Z":        true,
		"2024-05-01T10:30:00.123456":  true,
		"2024-05-01T10:30:00+02:00":   true,
		"2024-05-01":                  true,
		"":                            false,
		"yesterday":                   false,
	}
	for in, ok := range cases {
		_, got := Article{PublishedAt: in}.Published()
		if got != ok {
			t.Errorf("Published(%q): expected ok=%v, got %v", in, ok, got)
		}
	}
}
