//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDeviceSetting struct {
	Name   string   `toml:"name"`
	Qubits int      `toml:"qubits"`
	Gates  []string `toml:"gates,omitempty"`
}

func TestRegisterSettings(t *testing.T) {
	s := newSetting()
	s.registerSetting("device", &testDeviceSetting{})
	s.registerSetting("estimation", map[string]interface{}{})
	assert.Equal(t, 2, len(s.ComponentSetting))
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantError bool
		want      map[string]interface{}
	}{
		{
			name: "empty",
			in:   "",
			want: map[string]interface{}{},
		},
		{
			name: "component table",
			in: heredoc.Doc(`
				[com.device]
				name = "dummy"
				qubits = 4
			`),
			want: map[string]interface{}{
				"device": map[string]interface{}{"name": "dummy", "qubits": int64(4)},
			},
		},
		{
			name:      "broken",
			in:        "[com.device",
			wantError: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetSetting()
			gotError := globalSetting.parseSetting(tt.in)
			if tt.wantError {
				assert.NotNil(t, gotError)
				return
			}
			assert.Nil(t, gotError)
			assert.Equal(t, tt.want, GetGlobalSetting().ComponentSetting)
		})
	}
}

func TestDecodeComponentSetting(t *testing.T) {
	ResetSetting()
	defer ResetSetting()
	RegisterSetting("device", &testDeviceSetting{Name: "default", Qubits: 2})

	// registered defaults only
	got := testDeviceSetting{}
	require.Nil(t, DecodeComponentSetting("device", &got))
	assert.Equal(t, testDeviceSetting{Name: "default", Qubits: 2}, got)

	require.Nil(t, ParseSetting(heredoc.Doc(`
		[com.device]
		qubits = 8
		gates = ["x", "h"]
	`)))
	got = testDeviceSetting{Name: "default"}
	require.Nil(t, DecodeComponentSetting("device", &got))
	assert.Equal(t, testDeviceSetting{Name: "default", Qubits: 8, Gates: []string{"x", "h"}}, got)

	assert.EqualError(t, DecodeComponentSetting("missing", &got), "setting missing is not found")
}
