package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeWeekdays(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil input",
			input:    nil,
			expected: []string{},
		},
		{
			name:     "mixed case and accents",
			input:    []string{"Lunes", "Miércoles", "miercoles", "SÁBADO"},
			expected: []string{"lunes", "miercoles", "sabado"},
		},
		{
			name:     "empty entries dropped",
			input:    []string{"", "  ", "domingo"},
			expected: []string{"domingo"},
		},
		{
			name:     "order preserved",
			input:    []string{"viernes", "lunes", "viernes"},
			expected: []string{"viernes", "lunes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWeekdays(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("NormalizeWeekdays(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
