package adminclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

func TestAdminEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/users":
			_ = json.NewEncoder(w).Encode(domain.Page[domain.User]{
				Data: []domain.User{{ID: "u1"}}, Pagination: domain.NewPagination(1, 1, 10),
			})
		case "/admin/works":
			_ = json.NewEncoder(w).Encode(domain.Page[domain.Work]{
				Data: []domain.Work{{ID: "w1"}, {ID: "w2"}}, Pagination: domain.NewPagination(2, 1, 10),
			})
		case "/admin/payments":
			_ = json.NewEncoder(w).Encode(domain.Page[domain.Payment]{Pagination: domain.NewPagination(0, 1, 10)})
		case "/admin/analytics":
			_ = json.NewEncoder(w).Encode(domain.Analytics{TotalUsers: 3, Revenue: 2999})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	c := NewClient(api)
	ctx := context.Background()
	params := domain.PaginationParams{Page: 1, Limit: 10}

	users, err := c.Users(ctx, params)
	if err != nil || len(users.Data) != 1 {
		t.Fatalf("users: %+v %v", users, err)
	}
	works, err := c.Works(ctx, params)
	if err != nil || len(works.Data) != 2 {
		t.Fatalf("works: %+v %v", works, err)
	}
	payments, err := c.Payments(ctx, params)
	if err != nil || len(payments.Data) != 0 {
		t.Fatalf("payments: %+v %v", payments, err)
	}
	stats, err := c.Analytics(ctx)
	if err != nil || stats.TotalUsers != 3 || stats.Revenue != 2999 {
		t.Fatalf("analytics: %+v %v", stats, err)
	}
}

func TestForbiddenSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Admin access required"}`))
	}))
	defer srv.Close()
	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	_, err = NewClient(api).Analytics(context.Background())
	if err == nil || err.Error() != "Admin access required" {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}
