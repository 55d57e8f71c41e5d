// Package registration validates and submits the work registration and
// account signup forms.
package registration

import (
	"context"
	"fmt"
	"strings"

	"musicworks/internal/apiclient"
	"musicworks/internal/upload"
	"musicworks/pkg/domain"
)

// WorkMaxFiles is the file limit of the work registration form.
const WorkMaxFiles = 10

// Work form messages.
const (
	MsgTitleRequired  = "Title is required"
	MsgAuthorRequired = "At least one author is required"
	MsgInvalidISRC    = "Invalid ISRC format (CC-XXX-YY-NNNNN)"
	MsgInvalidISWC    = "Invalid ISWC format (T-DDD.DDD.DDD-C)"
	MsgFileRequired   = "At least one file is required"
)

var workMessages = map[string]messageFunc{
	"title":   fixed(MsgTitleRequired),
	"authors": fixed(MsgAuthorRequired),
	"isrc":    fixed(MsgInvalidISRC),
	"iswc":    fixed(MsgInvalidISWC),
	"files":   fixed(MsgFileRequired),
}

// WorkForm is the work registration form.
type WorkForm struct {
	Title       string             `json:"title" validate:"notblank"`
	Authors     []string           `json:"authors" validate:"anyauthor"`
	CoAuthors   []string           `json:"coAuthors"`
	ISRC        string             `json:"isrc" validate:"omitempty,isrc"`
	ISWC        string             `json:"iswc" validate:"omitempty,iswc"`
	Description string             `json:"description"`
	Files       []upload.Candidate `json:"files" validate:"min=1"`
}

// WorkCreator accepts the assembled form. state.WorkStore implements it.
type WorkCreator interface {
	CreateWork(ctx context.Context, form *apiclient.Multipart) (domain.Work, error)
}

// FileConfig returns the selector settings of the registration form.
func FileConfig() upload.Config {
	cfg := upload.DefaultConfig()
	cfg.MaxFiles = WorkMaxFiles
	return cfg
}

// Validate returns field name to message for every invalid field.
func (f *WorkForm) Validate() map[string]string {
	return validateStruct(f, workMessages)
}

// Submit validates the form and, when it is valid, sends it through creator.
// An invalid form returns *ValidationError without any network call.
func (f *WorkForm) Submit(ctx context.Context, creator WorkCreator) (domain.Work, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return domain.Work{}, &ValidationError{Fields: errs}
	}
	form, err := f.Payload()
	if err != nil {
		return domain.Work{}, err
	}
	return creator.CreateWork(ctx, form)
}

// Payload assembles the multipart body: author lists as JSON arrays of
// trimmed names, then one "files" part per file.
func (f *WorkForm) Payload() (*apiclient.Multipart, error) {
	form := apiclient.NewMultipart().
		Field("title", strings.TrimSpace(f.Title)).
		JSONField("authors", cleanNames(f.Authors)).
		JSONField("coAuthors", cleanNames(f.CoAuthors)).
		Field("isrc", strings.TrimSpace(f.ISRC)).
		Field("iswc", strings.TrimSpace(f.ISWC)).
		Field("description", f.Description)
	for _, file := range f.Files {
		if file.Open == nil {
			return nil, fmt.Errorf("open %s: no content", file.Name)
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file.Name, err)
		}
		form.File("files", file.Name, rc)
		rc.Close()
	}
	if err := form.Err(); err != nil {
		return nil, fmt.Errorf("build work form: %w", err)
	}
	return form, nil
}
