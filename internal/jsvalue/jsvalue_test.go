package jsvalue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEngine struct{}

func (failingEngine) Name() string                      { return "broken" }
func (failingEngine) EvalString(string) (string, error) { return "", errors.New("boom") }

func TestDecodeStringLiteral(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"hex escapes", `'\x7b\x22a\x22:1\x7d'`, `{"a":1}`},
		{"unicode escape", `"caf\u00e9"`, "café"},
		{"escaped quote", `'it\'s'`, "it's"},
		{"plain", `"plain"`, "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStringLiteral(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnginesAgree(t *testing.T) {
	const lit = `'\x7b\x22contents\x22:\x7b\x7d\x7d'`
	for _, e := range DefaultEngines {
		got, err := e.EvalString(lit)
		require.NoError(t, err, e.Name())
		assert.Equal(t, `{"contents":{}}`, got, e.Name())
	}
}

func TestDecodeWith_Fallback(t *testing.T) {
	got, err := DecodeWith([]Engine{failingEngine{}, OttoEngine{}}, `'\x41'`)
	require.NoError(t, err)
	assert.Equal(t, "A", got)
}

func TestDecodeWith_Errors(t *testing.T) {
	_, err := DecodeStringLiteral("{not a string}")
	assert.Error(t, err)

	_, err = DecodeStringLiteral(`'unterminated`)
	assert.Error(t, err)

	_, err = DecodeWith([]Engine{failingEngine{}}, `'x'`)
	assert.ErrorContains(t, err, "broken: boom")

	_, err = DecodeWith(nil, `'x'`)
	assert.Error(t, err)
}

func TestEvalString_NonString(t *testing.T) {
	_, err := GojaEngine{}.EvalString("1 + 1")
	assert.ErrorIs(t, err, errNotString)

	_, err = OttoEngine{}.EvalString("1 + 1")
	assert.ErrorIs(t, err, errNotString)
}
