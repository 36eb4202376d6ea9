package modlib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDisabledIdempotent(t *testing.T) {
	for _, name := range []string{"Skin1", "DISABLED_Skin1", "", "disabled_lower", "角色"} {
		once := EncodeDisabled(name)
		twice := EncodeDisabled(once)
		assert.Equal(t, once, twice, name)

		display, enabled := Decode(once)
		assert.False(t, enabled, name)
		assert.False(t, strings.HasPrefix(display, DisablePrefix), name)

		d1, e1 := Decode(once)
		d2, e2 := Decode(twice)
		assert.Equal(t, d1, d2)
		assert.Equal(t, e1, e2)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		display string
		enabled bool
	}{
		{"Skin1", "Skin1", true},
		{"DISABLED_Skin1", "Skin1", false},
		{"disabled_Skin1", "disabled_Skin1", true},
		{"DISABLED_", "", false},
	}
	for _, tt := range tests {
		display, enabled := Decode(tt.name)
		assert.Equal(t, tt.display, display, tt.name)
		assert.Equal(t, tt.enabled, enabled, tt.name)
	}
}

func TestEncodeStateRoundTrip(t *testing.T) {
	assert.Equal(t, "Skin1", encodeState(encodeState("Skin1", false), true))
	assert.Equal(t, "DISABLED_Skin1", encodeState(encodeState("DISABLED_Skin1", true), false))
	assert.Equal(t, "Skin1", EncodeEnabled("Skin1"))
}
