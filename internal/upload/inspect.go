package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

var errNoPages = errors.New("pdf has no pages")

// inspectPDF parses the candidate far enough to count its pages.
func inspectPDF(c Candidate) (err error) {
	if c.Open == nil {
		return errors.New("no content")
	}
	rc, err := c.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Name, err)
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %s: %v", c.Name, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.Name, err)
	}
	if reader.NumPage() == 0 {
		return errNoPages
	}
	return nil
}
