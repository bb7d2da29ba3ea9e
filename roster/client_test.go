package roster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/google/go-cmp/cmp"
)

func TestActiveNames(t *testing.T) {
	entries := []Entry{
		{Name: "Zoe", Active: true},
		{Name: "Ángel", Active: true},
		{Name: "Ñandú  Pérez", Active: true},
		{Name: "Nora", Active: true},
		{Name: "Bob", Active: false},
		{Name: " Zoe ", Active: true},
		{Name: "   ", Active: true},
	}
	got := ActiveNames(entries)
	want := []string{"Ángel", "Nora", "Ñandú Pérez", "Zoe"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestClientFetchActivePages(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page_size") != "2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page_token") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"items":           []Entry{{Name: "Luis", Active: true}, {Name: "Bea", Active: false}},
				"next_page_token": "p2",
			})
		case "p2":
			json.NewEncoder(w).Encode(map[string]any{
				"data": []Entry{{Name: "Ana", Active: true}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "secret", 2)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.FetchActive(context.Background())
	if err != nil {
		t.Fatalf("FetchActive: %v", err)
	}
	if diff := cmp.Diff([]string{"Ana", "Luis"}, got); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 page requests, got %d", hits.Load())
	}
}

func TestClientStopsOnRepeatedToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"items":           []Entry{{Name: "Ana", Active: true}},
			"next_page_token": "same",
		})
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "", 0)
	got, err := client.FetchActive(context.Background())
	if err != nil {
		t.Fatalf("FetchActive: %v", err)
	}
	if len(got) != 1 || hits.Load() != 2 {
		t.Fatalf("expected to stop after the token repeated, got %v after %d requests", got, hits.Load())
	}
}

func TestClientReportsUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, "", 10)
	_, err := client.FetchActive(context.Background())
	if !utils.IsUpstreamError(err) {
		t.Fatalf("expected an upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected the status in the error, got %v", err)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient("  ", "", 10); err == nil {
		t.Fatalf("expected an error for an empty url")
	}
}
