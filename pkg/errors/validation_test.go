package errors

import (
	"strings"
	"testing"
)

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid simple", "guild-bakers-munich", false},
		{"valid with dots", "org.example.branch", false},
		{"valid with underscores", "house_of_wessex", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 257), true},
		{"control character", "guild\x01name", true},
		{"null byte", "guild\x00name", true},
		{"path traversal", "../etc/passwd", true},
		{"path separator", "guild/sub", true},
		{"backslash", "guild\\sub", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntityID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateFamilyHash(t *testing.T) {
	valid := strings.Repeat("ab12", 16)

	tests := []struct {
		name    string
		hash    string
		wantErr bool
	}{
		{"valid", valid, false},
		{"empty", "", true},
		{"too short", valid[:63], true},
		{"too long", valid + "a", true},
		{"uppercase", strings.ToUpper(valid), true},
		{"non-hex", strings.Repeat("zz12", 16), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFamilyHash(tt.hash)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFamilyHash(%q) error = %v, wantErr %v", tt.hash, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidHash) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidHash)
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		wantErr bool
	}{
		{"modern", 1987, false},
		{"ancient", -500, false},
		{"boundary low", -5000, false},
		{"boundary high", 3000, false},
		{"below range", -5001, true},
		{"above range", 3001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYear(tt.year)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateYear(%d) error = %v, wantErr %v", tt.year, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid relative", "out/layout.svg", false},
		{"valid absolute", "/tmp/layout.svg", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a/", 300), true},
		{"traversal", "../secret.svg", true},
		{"null byte", "out\x00.svg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
