package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate_FlatKeys(t *testing.T) {
	original := map[string]any{
		"structured_data": map[string]any{
			"name": map[string]any{"value": "Jane"},
		},
	}
	flat := Flatten(original)

	got := Interpolate("Hi {name}, thanks for calling!", flat, original)

	assert.Equal(t, "Hi Jane, thanks for calling!", got)
}

func TestInterpolate_PresentButEmptyResolvesEmpty(t *testing.T) {
	flat := map[string]any{"note": ""}

	got := Interpolate("[{note}]", flat, map[string]any{})

	assert.Equal(t, "[]", got)
}

func TestInterpolate_UnresolvedTokenPreserved(t *testing.T) {
	got := Interpolate("Hi {missing}!", map[string]any{}, map[string]any{})

	assert.Equal(t, "Hi {missing}!", got)
}

func TestInterpolate_DottedPathWalksOriginal(t *testing.T) {
	original := map[string]any{
		"callData": map[string]any{
			"analysis": map[string]any{
				"summary": "went well",
			},
		},
	}

	got := Interpolate("Summary: {callData.analysis.summary}", map[string]any{}, original)

	assert.Equal(t, "Summary: went well", got)
}

func TestInterpolate_DottedLeafUnwrapsValueEnvelope(t *testing.T) {
	original := map[string]any{
		"callData": map[string]any{
			"structured_data": map[string]any{
				"reason": map[string]any{"value": "pricing question"},
			},
		},
	}

	got := Interpolate("{callData.structured_data.reason}", map[string]any{}, original)

	assert.Equal(t, "pricing question", got)
}

func TestInterpolate_StructuredDataPrefix(t *testing.T) {
	tests := []struct {
		name     string
		template string
		original map[string]any
		want     string
	}{
		{
			name:     "direct field",
			template: "{structured_data.budget}",
			original: map[string]any{
				"structured_data": map[string]any{"budget": map[string]any{"value": "50k"}},
			},
			want: "50k",
		},
		{
			name:     "name via customer name alias",
			template: "{structured_data.name}",
			original: map[string]any{
				"structured_data": map[string]any{"Customer Name": "Jane"},
			},
			want: "Jane",
		},
		{
			name:     "falls back to callData",
			template: "{structured_data.email}",
			original: map[string]any{
				"callData": map[string]any{
					"structured_data": map[string]any{"email": "a@b.co"},
				},
			},
			want: "a@b.co",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpolate(tt.template, map[string]any{}, tt.original)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolate_AppointmentPrefixNoUnwrap(t *testing.T) {
	original := map[string]any{
		"callData": map[string]any{
			"appointment": map[string]any{
				"start_time": "2026-03-01T10:00:00Z",
				"contact":    map[string]any{"name": "Jane"},
			},
		},
	}

	assert.Equal(t, "2026-03-01T10:00:00Z",
		Interpolate("{appointment.start_time}", map[string]any{}, original))
	assert.Equal(t, "Jane",
		Interpolate("{appointment.contact.name}", map[string]any{}, original))
}

func TestInterpolate_NonStringValues(t *testing.T) {
	flat := map[string]any{
		"count":   3.0,
		"flag":    true,
		"details": map[string]any{"a": 1.0},
	}

	assert.Equal(t, "3", Interpolate("{count}", flat, nil))
	assert.Equal(t, "true", Interpolate("{flag}", flat, nil))
	assert.Equal(t, `{"a":1}`, Interpolate("{details}", flat, nil))
}

func TestInterpolate_NoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain text", Interpolate("plain text", nil, nil))
	assert.Equal(t, "", Interpolate("", nil, nil))
}

func TestInterpolateMap(t *testing.T) {
	flat := map[string]any{"token": "abc"}

	got := InterpolateMap(map[string]string{
		"Authorization": "Bearer {token}",
		"Accept":        "application/json",
	}, flat, nil)

	assert.Equal(t, "Bearer abc", got["Authorization"])
	assert.Equal(t, "application/json", got["Accept"])
	assert.Nil(t, InterpolateMap(nil, flat, nil))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "x", Stringify("x"))
	assert.Equal(t, "2.5", Stringify(2.5))
	assert.Equal(t, "7", Stringify(7))
	assert.Equal(t, "false", Stringify(false))
}

func TestHasUnresolved(t *testing.T) {
	assert.True(t, HasUnresolved("{manager_phone}"))
	assert.True(t, HasUnresolved("call {name} back"))
	assert.False(t, HasUnresolved("+15551234567"))
	assert.False(t, HasUnresolved(""))
	assert.False(t, HasUnresolved("{}"))
}
