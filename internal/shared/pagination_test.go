package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feetrack/feetrack/internal/platform/httpx"
)

func TestParsePageDefaults(t *testing.T) {
	p, err := ParsePage("", " ")
	require.NoError(t, err)
	assert.Equal(t, Page{Page: DefaultPage, Limit: DefaultLimit}, p)
	assert.Equal(t, 0, p.Offset())
}

func TestParsePageOffset(t *testing.T) {
	p, err := ParsePage("3", "25")
	require.NoError(t, err)
	assert.Equal(t, 50, p.Offset())
}

func TestParsePageRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name, page, limit string
	}{
		{"zero page", "0", ""},
		{"negative page", "-2", ""},
		{"non numeric page", "two", ""},
		{"zero limit", "", "0"},
		{"limit above max", "", "101"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePage(tc.page, tc.limit)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}
