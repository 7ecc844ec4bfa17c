package chatctx

import "testing"

func TestValidateContextName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "simple name",
			input:   "demo",
			wantErr: false,
		},
		{
			name:    "with separators",
			input:   "work.project_2024-q3",
			wantErr: false,
		},
		{
			name:    "digits only",
			input:   "123",
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "leading dot",
			input:   ".hidden",
			wantErr: true,
		},
		{
			name:    "path separator",
			input:   "a/b",
			wantErr: true,
		},
		{
			name:    "path traversal",
			input:   "../escape",
			wantErr: true,
		},
		{
			name:    "whitespace",
			input:   "my context",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContextName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContextName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
