package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneValidator(t *testing.T) {
	validator := NewPhoneValidator()
	assert.NotNil(t, validator)
}

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"9876543210", "9876543210", "Plain mobile"},
		{"98765 43210", "9876543210", "With spaces"},
		{"098765-43210", "09876543210", "With trunk prefix and dash"},
		{"+91 98765 43210", "+919876543210", "International"},
		{"(0471) 234 5678", "04712345678", "Landline with parentheses"},
		{"555.123.4567", "5551234567", "With dots"},
		{"1234567", "1234567", "Minimum length"},
		{"+123456789012345", "+123456789012345", "Maximum length"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"     ", ErrEmptyPhone, "Only spaces"},
		{"123456", ErrInvalidLength, "Too short"},
		{"1234567890123456", ErrInvalidLength, "Too long"},
		{"98765abcde", ErrInvalidFormat, "Contains letters"},
		{"98765 4321!", ErrInvalidFormat, "Contains special characters"},
		{"98+76543210", ErrInvalidFormat, "Plus in the middle"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestSanitize(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"9876543210", "9876543210", "Already clean"},
		{"  98765-43210  ", "9876543210", "Padded"},
		{"+91 (98765) 43210", "+919876543210", "Mixed separators"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, validator.Sanitize(tc.input))
		})
	}
}

func TestIsValid(t *testing.T) {
	validator := NewPhoneValidator()

	assert.True(t, validator.IsValid("+1 555 123 4567"))
	assert.False(t, validator.IsValid("call me"))
}

func BenchmarkValidate(b *testing.B) {
	validator := NewPhoneValidator()
	phone := "+91 98765 43210"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validator.Validate(phone)
	}
}
