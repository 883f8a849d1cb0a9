package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := NewSessionOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, DefaultWaitTimeout, opts.DefaultWaitTimeout)
	assert.NotNil(t, opts.Persister)

	caps := opts.desiredCapabilities()
	assert.Equal(t, []string{"browserName", "version", "javascriptEnabled", "nativeEvents"}, caps.Keys())
	assert.Equal(t, map[string]any{
		"browserName":       "firefox",
		"version":           "",
		"javascriptEnabled": true,
		"nativeEvents":      false,
	}, caps.ToMap())
}

func TestSessionOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*SessionOptions)
		wantErr string
	}{
		{
			name:   "valid_base_url",
			modify: func(o *SessionOptions) { o.BaseURL = "http://localhost:8080/app/" },
		},
		{
			name:    "relative_base_url",
			modify:  func(o *SessionOptions) { o.BaseURL = "/app" },
			wantErr: "base URL must be absolute",
		},
		{
			name:    "zero_wait",
			modify:  func(o *SessionOptions) { o.DefaultWaitTimeout = 0 },
			wantErr: "invalid default wait timeout",
		},
		{
			name:    "negative_wait",
			modify:  func(o *SessionOptions) { o.DefaultWaitTimeout = -time.Second },
			wantErr: "invalid default wait timeout",
		},
		{
			name:    "empty_browser",
			modify:  func(o *SessionOptions) { o.Capabilities[CapabilityBrowserName] = "" },
			wantErr: "invalid browserName capability",
		},
		{
			name:    "browser_not_a_string",
			modify:  func(o *SessionOptions) { o.Capabilities[CapabilityBrowserName] = 42 },
			wantErr: "invalid browserName capability",
		},
		{
			name:   "no_browser",
			modify: func(o *SessionOptions) { delete(o.Capabilities, CapabilityBrowserName) },
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := NewSessionOptions()
			tt.modify(opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
