package services

import "testing"

func TestValidateModuleName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"openfhe", false},
		{"_private", false},
		{"package.sub_module", false},
		{"foo-bar", true},
		{"", true},
		{"1bad", true},
		{"openfhe; import os", true},
		{"trailing.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModuleName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModuleName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
