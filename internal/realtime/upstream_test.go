package realtime

import (
	"testing"

	"voice-assistant-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealtimeURL(t *testing.T) {
	cfg := config.AzureConfig{
		APIBase:            "https://myresource.openai.azure.com/",
		RealtimeDeployment: "gpt-4o-realtime-preview",
		RealtimeAPIVersion: "2024-10-01-preview",
	}

	endpoint, err := RealtimeURL(cfg)

	require.NoError(t, err)
	assert.Equal(t,
		"wss://myresource.openai.azure.com/openai/realtime?api-version=2024-10-01-preview&deployment=gpt-4o-realtime-preview",
		endpoint)
}

func TestRealtimeURLPlainHTTP(t *testing.T) {
	cfg := config.AzureConfig{
		APIBase:            "http://localhost:9000",
		RealtimeDeployment: "mock",
		RealtimeAPIVersion: "v1",
	}

	endpoint, err := RealtimeURL(cfg)

	require.NoError(t, err)
	assert.Contains(t, endpoint, "ws://localhost:9000/openai/realtime")
}
