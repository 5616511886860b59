package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Secret(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "long value keeps first four characters", value: "vWxYz1234567", want: "vWxY***"},
		{name: "short value fully masked", value: "abc", want: "***"},
		{name: "empty value", value: "", want: "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			attr := Secret("key", tt.value)
			assert.Equal("key", attr.Key)
			assert.Equal(tt.want, attr.Value.String())
		})
	}
}

func Test_Err(t *testing.T) {
	assert := assert.New(t)
	attr := Err(errors.New("boom"))
	assert.Equal("error", attr.Key)
	assert.Equal("boom", attr.Value.String())
}

func Test_Module(t *testing.T) {
	assert := assert.New(t)
	attr := Module("core")
	assert.Equal("mod", attr.Key)
	assert.Equal("core", attr.Value.String())
}
