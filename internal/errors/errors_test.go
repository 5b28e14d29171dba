package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config error", "C101", "Invalid backend URL", CategoryConfig},
		{"auth error", "C151", "Bearer token expired", CategoryAuth},
		{"protocol error", "C300", "Malformed intent", CategoryProtocol},
		{"unknown code", "C999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := stderrors.New("parse error")
	err := New("C101").WithField("backend.base_url").Wrap(cause)

	assert.Equal(t, "C101: Invalid backend URL (backend.base_url): parse error", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("load: %w", err), New("C101"))
	assert.NotErrorIs(t, err, New("C102"))
}

func TestFromErrorAndCode(t *testing.T) {
	assert.Nil(t, FromError(nil, "C200"))

	plain := stderrors.New("boom")
	wrapped := FromError(plain, "C200")
	assert.Equal(t, "C200", wrapped.Code)
	assert.ErrorIs(t, wrapped, plain)

	orig := New("C150")
	assert.Same(t, orig, FromError(fmt.Errorf("ctx: %w", orig), "C200"))
	assert.Equal(t, "C150", Code(fmt.Errorf("ctx: %w", orig)))
	assert.Empty(t, Code(plain))
}

func TestFormat(t *testing.T) {
	err := New("C106").WithField("CONSOLE_TABLE_SEARCH_DELAY").Wrap(stderrors.New(`time: invalid duration "abc"`))
	out := err.Format()

	for _, want := range []string{"C106:", "Environment override rejected", "CONSOLE_TABLE_SEARCH_DELAY", "invalid duration", "Hint:"} {
		assert.Contains(t, out, want)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("C152").WithDetail("role staff is not allowed")
	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)

	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "C152", got["code"])
	assert.Equal(t, "auth", got["category"])
	assert.Equal(t, "role staff is not allowed", got["detail"])
	_, hasCause := got["cause"]
	assert.False(t, hasCause)
}

func TestPrintJoined(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Join(New("C102"), stderrors.New("plain failure")))
	out := buf.String()
	assert.Contains(t, out, "C102:")
	assert.Contains(t, out, "plain failure")
	assert.Equal(t, 2, strings.Count(out, "ERROR"))
}

func TestRegistry(t *testing.T) {
	codes := Codes()
	require.NotEmpty(t, codes)
	for _, code := range codes {
		tmpl, ok := Lookup(code)
		require.True(t, ok)
		assert.NotEmpty(t, tmpl.Message, code)
		assert.NotEmpty(t, tmpl.Category, code)
	}
}
