package article

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Retiring at 50", "retiring-at-50"},
		{"What's an Index Fund?", "what-s-an-index-fund"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER case", "upper-case"},
		{"---", ""},
		{"", ""},
		{"money & markets: a primer", "money-markets-a-primer"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			require.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}
