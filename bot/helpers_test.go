package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Sanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text untouched", input: "hello world", want: "hello world"},
		{name: "markdown specials escaped", input: "a_b*c[d]e(f)", want: `a\_b\*c\[d\]e\(f\)`},
		{name: "dots and dashes escaped", input: "v1.2-rc!", want: `v1\.2\-rc\!`},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func Test_RequireAdmin(t *testing.T) {
	assert := assert.New(t)
	b := &TgBot{config: BotConfig{AdminIds: []int64{10, 20}}}
	assert.True(b.requireAdmin(10))
	assert.True(b.requireAdmin(20))
	assert.False(b.requireAdmin(30))
}

func Test_RequiredScopes(t *testing.T) {
	assert := assert.New(t)
	b := &TgBot{config: BotConfig{RequiredChats: []int64{-1001, -1002}}}
	assert.Equal([]string{"-1001", "-1002"}, b.requiredScopes())

	b = &TgBot{}
	assert.Empty(b.requiredScopes())
}
