package server

import (
	"net/http/httptest"
	"testing"

	"voice-assistant-be/internal/bootstrap"
	"voice-assistant-be/internal/config"
	"voice-assistant-be/internal/controller"
	"voice-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContainer(cfg *config.Config) *bootstrap.Container {
	return &bootstrap.Container{
		KBController:    controller.NewKBController(nil, nil, nil),
		VoiceController: controller.NewVoiceController(cfg, nil, nil, nil, nil, logger.NopLogger{}),
	}
}

// The out-of-the-box env defaults must yield a bootable server. The wildcard
// CORS origin only works with credentials disabled; fiber panics otherwise.
func TestNewWithDefaultConfig(t *testing.T) {
	cfg := config.Load()

	var srv *Server
	require.NotPanics(t, func() { srv = New(cfg, testContainer(cfg)) })
	require.NotNil(t, srv.GetApp())
}

func TestPreflightAllowsWildcardWithoutCredentials(t *testing.T) {
	cfg := config.Load()
	srv := New(cfg, testContainer(cfg))

	req := httptest.NewRequest("OPTIONS", "/api/kbs", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
