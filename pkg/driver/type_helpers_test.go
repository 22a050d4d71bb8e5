package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsString(t *testing.T) {
	s, ok := AsString("hello")
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = AsString(nil)
	assert.False(t, ok)

	_, ok = AsString(42)
	assert.False(t, ok)
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int64
		ok    bool
	}{
		{"int64", int64(7), 7, true},
		{"int", 7, 7, true},
		{"float64", 7.9, 7, true},
		{"string", "7", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsInt64(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsFloat64(t *testing.T) {
	f, ok := AsFloat64(2.5)
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	f, ok = AsFloat64(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = AsFloat64("3.0")
	assert.False(t, ok)
}

func TestAsBool(t *testing.T) {
	b, ok := AsBool(true)
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = AsBool(nil)
	assert.False(t, ok)

	_, ok = AsBool(1)
	assert.False(t, ok)
}

func TestAsTime(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	got, ok := AsTime(now)
	assert.True(t, ok)
	assert.True(t, got.Equal(now))

	// Some store configurations return temporal properties as strings.
	got, ok = AsTime("2026-04-01T12:00:00Z")
	assert.True(t, ok)
	assert.True(t, got.Equal(now))

	_, ok = AsTime("not a time")
	assert.False(t, ok)

	_, ok = AsTime(int64(1234))
	assert.False(t, ok)
}

func TestAsStringSlice(t *testing.T) {
	got, ok := AsStringSlice([]string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	// Store drivers return lists as []any.
	got, ok = AsStringSlice([]any{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	_, ok = AsStringSlice([]any{"a", 2})
	assert.False(t, ok)

	_, ok = AsStringSlice("a")
	assert.False(t, ok)
}

func TestAsMap(t *testing.T) {
	m, ok := AsMap(map[string]any{"k": "v"})
	assert.True(t, ok)
	assert.Equal(t, "v", m["k"])

	_, ok = AsMap(nil)
	assert.False(t, ok)
}
