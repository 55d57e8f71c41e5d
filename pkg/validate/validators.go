// Package validate holds the field checks shared by the account and work
// registration forms and by the upload selector.
package validate

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// CC-XXX-YY-NNNNN
	isrcPattern = regexp.MustCompile(`^[A-Z]{2}-[A-Z0-9]{3}-\d{2}-\d{5}$`)
	// T-DDD.DDD.DDD-C
	iswcPattern = regexp.MustCompile(`^T-\d{3}\.\d{3}\.\d{3}-\d$`)

	lowerPattern = regexp.MustCompile(`[a-z]`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	digitPattern = regexp.MustCompile(`\d`)
)

const minPasswordLength = 8

// Password failure messages, in the order they are reported.
const (
	MsgPasswordLength    = "Password must be at least 8 characters long"
	MsgPasswordLowercase = "Password must contain at least one lowercase letter"
	MsgPasswordUppercase = "Password must contain at least one uppercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
)

func Email(email string) bool {
	return emailPattern.MatchString(email)
}

// Password returns every rule the password breaks; an empty result means valid.
func Password(password string) []string {
	var errs []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs = append(errs, MsgPasswordLength)
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, MsgPasswordLowercase)
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, MsgPasswordUppercase)
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, MsgPasswordDigit)
	}
	return errs
}

// Required reports whether value has content after trimming whitespace.
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func ISRC(code string) bool {
	return isrcPattern.MatchString(code)
}

func ISWC(code string) bool {
	return iswcPattern.MatchString(code)
}

// FileType reports whether the extension of name is in allowed. Extensions
// compare case-insensitively and may be given with or without the dot.
func FileType(name string, allowed []string) bool {
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a)), ".") == ext {
			return true
		}
	}
	return false
}

// FileSize reports whether size fits within max bytes.
func FileSize(size, max int64) bool {
	return size <= max
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
