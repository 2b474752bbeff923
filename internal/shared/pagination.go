package shared

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/feetrack/feetrack/internal/platform/httpx"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a validated offset/limit window.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit query values. Empty values take the
// defaults; page must be at least 1 and limit between 1 and MaxLimit.
func ParsePage(rawPage, rawLimit string) (Page, error) {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if v := strings.TrimSpace(rawPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Page{}, fmt.Errorf("%w: page must be a positive integer", httpx.ErrValidation)
		}
		p.Page = n
	}
	if v := strings.TrimSpace(rawLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, fmt.Errorf("%w: limit must be between 1 and %d", httpx.ErrValidation, MaxLimit)
		}
		p.Limit = n
	}
	return p, nil
}
