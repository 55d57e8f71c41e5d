package registration

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"musicworks/internal/apiclient"
	"musicworks/internal/state"
	"musicworks/internal/upload"
	"musicworks/internal/workclient"
	"musicworks/pkg/domain"
)

func file(name, content string) upload.Candidate {
	return upload.Candidate{Name: name, Size: int64(len(content)), Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}}
}

type recordingCreator struct {
	calls int
}

func (r *recordingCreator) CreateWork(context.Context, *apiclient.Multipart) (domain.Work, error) {
	r.calls++
	return domain.Work{ID: "w1"}, nil
}

func TestWorkFormValidateReportsEachField(t *testing.T) {
	form := &WorkForm{
		Title:   "   ",
		Authors: []string{"", "  "},
		ISRC:    "US-AB1-24-123",
		ISWC:    "T-123.456.789",
	}
	errs := form.Validate()
	want := map[string]string{
		"title":   MsgTitleRequired,
		"authors": MsgAuthorRequired,
		"isrc":    MsgInvalidISRC,
		"iswc":    MsgInvalidISWC,
		"files":   MsgFileRequired,
	}
	if len(errs) != len(want) {
		t.Fatalf("unexpected errors %v", errs)
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Fatalf("%s = %q, want %q", field, errs[field], msg)
		}
	}
}

func TestWorkFormOptionalCodes(t *testing.T) {
	form := &WorkForm{
		Title:   "Song",
		Authors: []string{"Ana"},
		Files:   []upload.Candidate{file("a.mp3", "x")},
	}
	if errs := form.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid form, got %v", errs)
	}
	form.ISRC = "US-AB1-24-12345"
	form.ISWC = "T-123.456.789-0"
	if errs := form.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid codes, got %v", errs)
	}
}

func TestSubmitInvalidMakesNoCall(t *testing.T) {
	creator := &recordingCreator{}
	_, err := (&WorkForm{Title: "Song"}).Submit(context.Background(), creator)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatal("invalid form must not be submitted")
	}
	if !strings.Contains(verr.Error(), "authors: "+MsgAuthorRequired) {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestSubmitSendsMultipartThroughStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/works" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		checks := map[string]string{
			"title":       "Song",
			"authors":     `["Ana","Bo"]`,
			"coAuthors":   `[]`,
			"isrc":        "US-AB1-24-12345",
			"iswc":        "",
			"description": "demo",
		}
		for k, v := range checks {
			if got := r.FormValue(k); got != v {
				t.Fatalf("%s = %q, want %q", k, got, v)
			}
		}
		if n := len(r.MultipartForm.File["files"]); n != 2 {
			t.Fatalf("expected 2 files, got %d", n)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"w1","title":"Song","status":"pending"}`))
	}))
	defer srv.Close()

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	store := state.NewWorkStore(workclient.NewClient(api))

	form := &WorkForm{
		Title:       " Song ",
		Authors:     []string{" Ana ", "", "Bo"},
		CoAuthors:   []string{"  "},
		ISRC:        "US-AB1-24-12345",
		Description: "demo",
		Files:       []upload.Candidate{file("a.mp3", "ID3"), file("lyrics.pdf", "%PDF")},
	}
	work, err := form.Submit(context.Background(), store)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if work.ID != "w1" || work.Status != domain.WorkPending {
		t.Fatalf("unexpected work %+v", work)
	}
	if works := store.Snapshot().Works; len(works) != 1 || works[0].ID != "w1" {
		t.Fatalf("expected created work in store, got %+v", works)
	}
}

func TestFileConfigAllowsTenFiles(t *testing.T) {
	sel := upload.NewSelector(FileConfig())
	var drop []upload.Candidate
	for i := 0; i < WorkMaxFiles; i++ {
		drop = append(drop, file("t.mp3", "x"))
	}
	if res := sel.Add(drop...); len(res.Accepted) != WorkMaxFiles {
		t.Fatalf("expected %d accepted, got %v", WorkMaxFiles, res.Errors)
	}
	if res := sel.Add(file("extra.mp3", "x")); len(res.Accepted) != 0 {
		t.Fatal("expected eleventh file to be refused")
	}
}
