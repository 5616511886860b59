package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testPayload struct {
	Key    string `json:"key" validate:"required"`
	Device string `json:"device" validate:"omitempty"`
	Limit  int    `json:"limit" validate:"omitempty,min=1"`
}

func Test_Struct(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantErr string
	}{
		{
			name:  "valid",
			input: &testPayload{Key: "abc"},
		},
		{
			name:    "missing required field named by json tag",
			input:   &testPayload{},
			wantErr: "key required",
		},
		{
			name:    "several failures joined",
			input:   &testPayload{Limit: -1},
			wantErr: "key required; limit min",
		},
		{
			name:    "nil input",
			input:   nil,
			wantErr: "is nil",
		},
		{
			name:    "not a struct",
			input:   "plain string",
			wantErr: "not a struct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			err := Struct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(err)
				return
			}
			assert.EqualError(err, tt.wantErr)
		})
	}
}
