package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Str0ng!Passw0rd", ""},
		{"min length", "Abcdefghij1!", ""},
		{"max length", "A" + strings.Repeat("b", 125) + "1!", ""},
		{"unicode letters", "ÅngstromPass12!", ""},
		{"too short", "Small1!", "between 12 and 128"},
		{"too long", "A" + strings.Repeat("b", 126) + "1!", "between 12 and 128"},
		{"no upper", "securepass12!", "upper and lower"},
		{"no lower", "SECUREPASS12!", "upper and lower"},
		{"no digit", "SecurePass!!", "a digit"},
		{"no special", "SecurePass123", "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	local := strings.Repeat("a", 64)
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"contact address", "editor@ledger.example.com", false},
		{"plus tag", "jo+websites@example.co.uk", false},
		{"254 characters", local + "@" + strings.Repeat("b", 185) + ".com", false},
		{"255 characters", local + "@" + strings.Repeat("b", 186) + ".com", true},
		{"no at", "not-an-email", true},
		{"no domain", "user@", true},
		{"double at", "user@@example.com", true},
		{"space", "user @example.com", true},
		{"trailing dot", "user@example.com.", true},
		{"single label domain", "user@localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "editor@ledger.example.com", NormalizeEmail("  Editor@Ledger.Example.com \n"))
	assert.Empty(t, NormalizeEmail("   "))
}
