package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain text verbatim", "Rock", "Rock"},
		{"plain text untouched case", "progressive rock", "progressive rock"},
		{"numeric reference", "(17)", "Rock"},
		{"numeric reference zero", "(0)", "Blues"},
		{"multiple references first wins", "(4)(17)", "Disco"},
		{"unknown id falls back to empty", "(999)", ""},
		{"unknown id then known", "(999)(17)", "Rock"},
		{"empty", "", ""},
		{"text with parentheses elsewhere", "Rock (Live)", "Rock (Live)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.raw))
		})
	}
}

func TestLabelAndIndex(t *testing.T) {
	label, ok := Label(17)
	assert.True(t, ok)
	assert.Equal(t, "Rock", label)

	label, ok = Label(0)
	assert.True(t, ok)
	assert.Equal(t, "Blues", label)

	_, ok = Label(255)
	assert.False(t, ok)
	_, ok = Label(-1)
	assert.False(t, ok)

	assert.Equal(t, 17, Index("Rock"))
	assert.Equal(t, 17, Index("rock"))
	assert.Equal(t, Unknown, Index("Not A Genre"))
	assert.Equal(t, Unknown, Index(""))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 148, Count())
}
