package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func stubTerminal(t *testing.T, terminal bool, pw []byte, err error) {
	t.Helper()
	oldTerm, oldRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = oldTerm, oldRead })
	isTerminal = func(int) bool { return terminal }
	readPassword = func(int) ([]byte, error) { return pw, err }
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.ErrorIs(t, err, io.EOF)
}

func TestGetPassword(t *testing.T) {
	t.Run("terminal", func(t *testing.T) {
		stubTerminal(t, true, []byte("secret"), nil)
		var out bytes.Buffer
		pw, err := GetPassword(rdr(""), &out)
		require.NoError(t, err)
		assert.Equal(t, "secret", string(pw))
		assert.Equal(t, "Enter password: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		stubTerminal(t, true, nil, errors.New("boom"))
		var out bytes.Buffer
		_, err := GetPassword(rdr(""), &out)
		require.Error(t, err)
	})

	t.Run("piped input", func(t *testing.T) {
		stubTerminal(t, false, nil, errors.New("must not be called"))
		var out bytes.Buffer
		pw, err := GetPassword(rdr("piped\n"), &out)
		require.NoError(t, err)
		assert.Equal(t, "piped", string(pw))
	})
}

func TestGetYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetYesNo(rdr(tt.input), "Sure?", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
