package viewcount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1,234,567 views", "1.2M views"},
		{"950 views", "950 views"},
		{"2,500,000,000 views", "2.5B views"},
		{"1,000 views", "1.0K views"},
		{"999,999 views", "1000.0K views"},
		{"0 views", "0 views"},
		{"007 views", "7 views"},
		{"12,345", "12,345"},
		{"No views", "No views"},
		{"1.5K views", "1.5K views"},
		{"-5 views", "-5 views"},
		{"", ""},
		{"views", "views"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}
