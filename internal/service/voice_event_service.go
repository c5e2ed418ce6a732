package service

import (
	"context"
	"time"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/events"
	"voice-assistant-be/pkg/nats"
)

// VoiceEventPublisher forwards session lifecycle events to NATS. The bus is
// optional; a nil publisher or a failed publish only warns.
type VoiceEventPublisher struct {
	natsPub *nats.Publisher
	logger  logger.ILogger
}

func NewVoiceEventPublisher(natsPub *nats.Publisher, log logger.ILogger) *VoiceEventPublisher {
	return &VoiceEventPublisher{natsPub: natsPub, logger: log}
}

func (p *VoiceEventPublisher) SessionStarted(sessionID, kbID string) {
	p.publish(events.NewVoiceSessionStarted(sessionID, kbID))
}

func (p *VoiceEventPublisher) SessionEnded(sessionID, kbID string, transcriptLen int) {
	p.publish(events.NewVoiceSessionEnded(sessionID, kbID, transcriptLen))
}

func (p *VoiceEventPublisher) publish(event events.Event) {
	if p.natsPub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.natsPub.Publish(ctx, event); err != nil {
		p.logger.Warn("VoiceEvents", "Failed to publish lifecycle event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
