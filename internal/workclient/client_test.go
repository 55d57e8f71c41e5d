package workclient

import (
	"context"
	"encoding/json"
	"io"
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

func TestListSendsPagingQuery(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/works" || q.Get("page") != "2" || q.Get("limit") != "5" || q.Get("sortOrder") != "desc" {
			t.Fatalf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(domain.Page[domain.Work]{
			Data:       []domain.Work{{ID: "w1"}},
			Pagination: domain.NewPagination(6, 2, 5),
		})
	})
	page, err := c.List(context.Background(), domain.PaginationParams{Page: 2, Limit: 5, SortOrder: domain.SortDesc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 1 || page.Pagination.TotalPages != 2 || !page.Valid() {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestSearchMergesFiltersAndParams(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/works/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if q.Get("query") != "love" || q.Get("author") != "Ana" || q.Get("page") != "1" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("status") {
			t.Fatalf("empty filters must be omitted")
		}
		_ = json.NewEncoder(w).Encode(domain.Page[domain.Work]{Pagination: domain.NewPagination(0, 1, 10)})
	})
	_, err := c.Search(context.Background(),
		domain.SearchFilters{Query: "love", Author: "Ana"},
		domain.PaginationParams{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/works/w1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		if string(data) != `{"title":"New"}` {
			t.Fatalf("unexpected body %s", data)
		}
		_ = json.NewEncoder(w).Encode(domain.Work{ID: "w1", Title: "New"})
	})
	title := "New"
	work, err := c.Update(context.Background(), "w1", domain.WorkUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if work.Title != "New" {
		t.Fatalf("unexpected work %+v", work)
	}
}

func TestGetAndDelete(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(domain.Work{ID: "w 1"})
		case http.MethodDelete:
			if r.URL.EscapedPath() != "/works/w%201" {
				t.Fatalf("expected escaped id, got %s", r.URL.EscapedPath())
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})
	work, err := c.Get(context.Background(), "w 1")
	if err != nil || work.ID != "w 1" {
		t.Fatalf("get: %+v %v", work, err)
	}
	if err := c.Delete(context.Background(), "w 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestUploadFiles(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("workId") != "w1" || len(r.MultipartForm.File["files"]) != 2 {
			t.Fatalf("unexpected form: %v", r.MultipartForm)
		}
		_ = json.NewEncoder(w).Encode(UploadResult{Files: []domain.WorkFile{{ID: "f1"}, {ID: "f2"}}})
	})
	out, err := c.UploadFiles(context.Background(), []FilePart{
		{Name: "a.mp3", Body: strings.NewReader("a")},
		{Name: "b.pdf", Body: strings.NewReader("b")},
	}, "w1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(out.Files) != 2 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestCreatePropagatesAPIError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"ISRC already registered"}`))
	})
	_, err := c.Create(context.Background(), apiclient.NewMultipart().Field("title", "x"))
	if apiclient.MessageOr(err, "Failed to create work") != "ISRC already registered" {
		t.Fatalf("unexpected error %v", err)
	}
}
