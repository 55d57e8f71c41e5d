package registration

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"musicworks/pkg/validate"
)

var checker *validator.Validate

func init() {
	checker = validator.New()
	mustRegister("notblank", func(fl validator.FieldLevel) bool {
		return validate.Required(fl.Field().String())
	})
	mustRegister("isrc", func(fl validator.FieldLevel) bool {
		return validate.ISRC(fl.Field().String())
	})
	mustRegister("iswc", func(fl validator.FieldLevel) bool {
		return validate.ISWC(fl.Field().String())
	})
	mustRegister("simpleemail", func(fl validator.FieldLevel) bool {
		return validate.Email(fl.Field().String())
	})
	mustRegister("password", func(fl validator.FieldLevel) bool {
		return len(validate.Password(fl.Field().String())) == 0
	})
	mustRegister("anyauthor", func(fl validator.FieldLevel) bool {
		names, ok := fl.Field().Interface().([]string)
		return ok && len(cleanNames(names)) > 0
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := checker.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidationError lists field problems found before submission. Keys are
// the form's JSON field names.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// messageFunc builds the message for a failed tag; value is the field value.
type messageFunc func(tag string, value any) string

// validateStruct runs the struct tags of s (a pointer) and maps failures to
// JSON field names. Only the first failing tag per field is reported.
func validateStruct(s any, messages map[string]messageFunc) map[string]string {
	out := make(map[string]string)
	err := checker.Struct(s)
	if err == nil {
		return out
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		out["_"] = err.Error()
		return out
	}
	structType := reflect.TypeOf(s).Elem()
	for _, e := range errs {
		field, _ := structType.FieldByName(e.StructField())
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" {
			name = e.StructField()
		}
		if _, seen := out[name]; seen {
			continue
		}
		if msg, ok := messages[name]; ok {
			out[name] = msg(e.Tag(), e.Value())
			continue
		}
		out[name] = fmt.Sprintf("Field '%s' is invalid: %s", name, e.Tag())
	}
	return out
}

func fixed(msg string) messageFunc {
	return func(string, any) string { return msg }
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
