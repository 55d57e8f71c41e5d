package paymentclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	return NewClient(api)
}

func TestCreateAndConfirm(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/create":
			var req CreateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Amount != 999 || req.Currency != "usd" || req.PaymentMethod != domain.MethodMercadoPago {
				t.Fatalf("unexpected create body %+v", req)
			}
			_ = json.NewEncoder(w).Encode(CreateResponse{PaymentID: "p1", CheckoutURL: "https://pay.example/p1"})
		case "/payments/confirm":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["paymentId"] != "p1" {
				t.Fatalf("unexpected confirm body %v", body)
			}
			_ = json.NewEncoder(w).Encode(domain.Payment{ID: "p1", Status: domain.PaymentCompleted})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	created, err := c.Create(context.Background(), CreateRequest{Amount: 999, Currency: "usd", PaymentMethod: domain.MethodMercadoPago})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CheckoutURL == "" {
		t.Fatalf("expected checkout url")
	}
	payment, err := c.Confirm(context.Background(), created.PaymentID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if payment.Status != domain.PaymentCompleted {
		t.Fatalf("unexpected status %s", payment.Status)
	}
}

func TestHistoryAndGet(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/history":
			if r.URL.Query().Get("limit") != "10" {
				t.Fatalf("unexpected query %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(domain.Page[domain.Payment]{
				Data:       []domain.Payment{{ID: "p1"}, {ID: "p2"}},
				Pagination: domain.NewPagination(2, 1, 10),
			})
		case "/payments/p1":
			_ = json.NewEncoder(w).Encode(domain.Payment{ID: "p1", Amount: 2999})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	page, err := c.History(context.Background(), domain.PaginationParams{Page: 1, Limit: 10})
	if err != nil || len(page.Data) != 2 {
		t.Fatalf("history: %+v %v", page, err)
	}
	p, err := c.Get(context.Background(), "p1")
	if err != nil || p.Amount != 2999 {
		t.Fatalf("get: %+v %v", p, err)
	}
	if _, err := c.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected not found error")
	}
}
