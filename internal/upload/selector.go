// Package upload validates files picked for a work or authorization request
// before anything is sent to the server.
package upload

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"musicworks/pkg/validate"
)

var (
	AudioExtensions    = []string{"mp3", "wav", "flac", "m4a"}
	DocumentExtensions = []string{"pdf", "doc", "docx"}
	ImageExtensions    = []string{"jpg", "jpeg", "png", "gif"}
)

const (
	DefaultMaxFileBytes int64 = 50 * 1024 * 1024
	DefaultMaxFiles           = 5
)

// OverflowPolicy decides what happens when a drop would push the selection
// past MaxFiles.
type OverflowPolicy int

const (
	// OverflowRejectAll refuses every file of the drop.
	OverflowRejectAll OverflowPolicy = iota
	// OverflowFillQuota accepts files in order until the quota is reached.
	OverflowFillQuota
)

// Candidate is a file offered to the selector. Open may be called more than
// once.
type Candidate struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Config tunes a Selector. Start from DefaultConfig.
type Config struct {
	AllowedExtensions []string
	MaxFileBytes      int64
	MaxFiles          int
	// Multiple appends drops to the selection; otherwise each drop replaces it.
	Multiple bool
	Overflow OverflowPolicy
	// InspectDocuments opens PDF candidates and rejects unreadable ones.
	InspectDocuments bool
	// OnChange runs with the new selection after every change.
	OnChange func([]Candidate)
}

// DefaultConfig accepts audio and documents up to 50MB, five at a time.
func DefaultConfig() Config {
	return Config{
		AllowedExtensions: append(append([]string{}, AudioExtensions...), DocumentExtensions...),
		MaxFileBytes:      DefaultMaxFileBytes,
		MaxFiles:          DefaultMaxFiles,
		Multiple:          true,
	}
}

// Result reports the outcome of one Add call.
type Result struct {
	Accepted []Candidate
	Errors   []string
}

// Selector holds the current file selection.
type Selector struct {
	mu       sync.Mutex
	cfg      Config
	allowed  []string
	selected []Candidate
}

func NewSelector(cfg Config) *Selector {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	allowed := normalizeExtensions(cfg.AllowedExtensions)
	if len(allowed) == 0 {
		allowed = normalizeExtensions(DefaultConfig().AllowedExtensions)
	}
	return &Selector{cfg: cfg, allowed: allowed}
}

// Add validates each candidate on its own, then applies the count limit to
// the files that passed.
func (s *Selector) Add(candidates ...Candidate) Result {
	var res Result
	var valid []Candidate
	for _, c := range candidates {
		if reason := s.check(c); reason != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", c.Name, reason))
			continue
		}
		valid = append(valid, c)
	}

	s.mu.Lock()
	existing := len(s.selected)
	if !s.cfg.Multiple {
		existing = 0
	}
	if existing+len(valid) > s.cfg.MaxFiles {
		res.Errors = append(res.Errors, fmt.Sprintf("Maximum %d files allowed", s.cfg.MaxFiles))
		if s.cfg.Overflow != OverflowFillQuota {
			s.mu.Unlock()
			return res
		}
		valid = valid[:max(s.cfg.MaxFiles-existing, 0)]
	}
	if s.cfg.Multiple {
		s.selected = append(s.selected, valid...)
	} else {
		s.selected = valid
	}
	selection := s.snapshotLocked()
	s.mu.Unlock()

	res.Accepted = valid
	s.changed(selection)
	return res
}

// Remove drops the file at index i. It reports false for an out-of-range index.
func (s *Selector) Remove(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.selected) {
		s.mu.Unlock()
		return false
	}
	s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
	selection := s.snapshotLocked()
	s.mu.Unlock()
	s.changed(selection)
	return true
}

// Files returns the current selection.
func (s *Selector) Files() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Selector) Reset() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	s.changed(nil)
}

func (s *Selector) check(c Candidate) string {
	if !validate.FileType(c.Name, s.allowed) {
		return "File type not supported"
	}
	if !validate.FileSize(c.Size, s.cfg.MaxFileBytes) {
		return fmt.Sprintf("File size too large (max %sMB)", formatMegabytes(s.cfg.MaxFileBytes))
	}
	if s.cfg.InspectDocuments && validate.Extension(c.Name) == "pdf" {
		if err := inspectPDF(c); err != nil {
			return "Unreadable PDF document"
		}
	}
	return ""
}

func (s *Selector) snapshotLocked() []Candidate {
	out := make([]Candidate, len(s.selected))
	copy(out, s.selected)
	return out
}

func (s *Selector) changed(selection []Candidate) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(selection)
	}
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext == "" {
			continue
		}
		out = append(out, ext)
	}
	return out
}

func formatMegabytes(n int64) string {
	return strconv.FormatFloat(float64(n)/1024/1024, 'f', -1, 64)
}

// FormatSize renders a byte count as "1.5 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizes[i]
}
