package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "requests", false},
		{"valid with dash", "my-package", false},
		{"valid with underscore", "my_package", false},
		{"valid with dot", "my.package", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"leading dash", "-r", true},
		{"option injection", "--index-url=http://evil", true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"carriage return", "foo\rbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPackage) {
				t.Errorf("ValidatePackageName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidatePythonPackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "requests", false},
		{"with dash", "my-package", false},
		{"with underscore", "my_package", false},
		{"with dot", "my.package", false},
		{"with numbers", "package123", false},
		{"uppercase", "Pillow", false},
		{"single char", "x", false},

		{"empty", "", true},
		{"starts with dash", "-package", true},
		{"starts with dot", ".package", true},
		{"ends with dash", "package-", true},
		{"ends with dot", "package.", true},
		{"special chars", "my@package", true},
		{"spaces", "my package", true},
		{"template", "%(module)s", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePythonPackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePythonPackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateManifestPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "requirements.txt", false},
		{"nested", "deps/requirements-dev.txt", false},
		{"absolute", "/tmp/project/requirements.txt", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"trailing slash", "deps/", true},
		{"dot", ".", true},
		{"dotdot", "deps/..", true},
		{"null byte", "req\x00.txt", true},
		{"newline", "req\n.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManifestPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateManifestPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateManifestPath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPackage,
		ErrCodeInvalidPath,
		ErrCodeInvalidConfig,
		ErrCodeInvalidManifest,
		ErrCodeScan,
		ErrCodeVerify,
		ErrCodeInstall,
		ErrCodeUninstall,
		ErrCodeManifestWrite,
		ErrCodeCacheClean,
		ErrCodeRateLimited,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
