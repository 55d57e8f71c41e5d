package registration

import (
	"context"
	"strings"

	"musicworks/pkg/domain"
	"musicworks/pkg/validate"
)

// AccountForm is the signup form.
type AccountForm struct {
	FirstName       string `json:"firstName" validate:"notblank"`
	LastName        string `json:"lastName" validate:"notblank"`
	Email           string `json:"email" validate:"notblank,simpleemail"`
	Password        string `json:"password" validate:"notblank,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"notblank,eqfield=Password"`
}

var accountMessages = map[string]messageFunc{
	"firstName": fixed("First name is required"),
	"lastName":  fixed("Last name is required"),
	"email": func(tag string, _ any) string {
		if tag == "notblank" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	},
	"password": func(tag string, value any) string {
		if tag == "notblank" {
			return "Password is required"
		}
		// only the first broken rule is shown
		s, _ := value.(string)
		if errs := validate.Password(s); len(errs) > 0 {
			return errs[0]
		}
		return "Password is invalid"
	},
	"confirmPassword": func(tag string, _ any) string {
		if tag == "notblank" {
			return "Please confirm your password"
		}
		return "Passwords do not match"
	},
}

// Registrar creates the account. state.AuthStore implements it.
type Registrar interface {
	Register(ctx context.Context, data domain.RegisterData) (domain.User, error)
}

func (f *AccountForm) Validate() map[string]string {
	return validateStruct(f, accountMessages)
}

// RegisterData converts the form into the signup request body.
func (f *AccountForm) RegisterData() domain.RegisterData {
	return domain.RegisterData{
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
	}
}

// Submit validates the form and registers the account.
func (f *AccountForm) Submit(ctx context.Context, r Registrar) (domain.User, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return domain.User{}, &ValidationError{Fields: errs}
	}
	return r.Register(ctx, f.RegisterData())
}
