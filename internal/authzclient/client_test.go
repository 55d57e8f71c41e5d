package authzclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func TestSubmitSendsProofFiles(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/authorization/request" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("workId") != "w1" || r.FormValue("requestType") != "exclusivity" {
			t.Fatalf("unexpected fields %v", r.MultipartForm.Value)
		}
		if len(r.MultipartForm.File["proofFiles"]) != 1 {
			t.Fatalf("expected one proof file")
		}
		_ = json.NewEncoder(w).Encode(domain.AuthorizationRequest{ID: "a1", Status: domain.AuthorizationPending})
	})
	out, err := c.Submit(context.Background(), SubmitRequest{
		WorkID:      "w1",
		RequestType: domain.RequestExclusivity,
		Description: "sole rights",
		ProofFiles:  []ProofFile{{Name: "contract.pdf", Body: strings.NewReader("%PDF")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.ID != "a1" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestApproveAndReject(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		status := domain.AuthorizationApproved
		if strings.HasSuffix(r.URL.Path, "/reject") {
			status = domain.AuthorizationRejected
		}
		_ = json.NewEncoder(w).Encode(domain.AuthorizationRequest{ID: "a1", Status: status})
	})
	approved, err := c.Approve(context.Background(), "a1")
	if err != nil || approved.Status != domain.AuthorizationApproved {
		t.Fatalf("approve: %+v %v", approved, err)
	}
	rejected, err := c.Reject(context.Background(), "a1")
	if err != nil || rejected.Status != domain.AuthorizationRejected {
		t.Fatalf("reject: %+v %v", rejected, err)
	}
}

func TestList(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/authorization" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(domain.Page[domain.AuthorizationRequest]{
			Data:       []domain.AuthorizationRequest{{ID: "a1"}},
			Pagination: domain.NewPagination(1, 1, 10),
		})
	})
	page, err := c.List(context.Background(), domain.PaginationParams{Page: 1, Limit: 10})
	if err != nil || len(page.Data) != 1 {
		t.Fatalf("list: %+v %v", page, err)
	}
}
