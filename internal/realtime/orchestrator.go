package realtime

import (
	"context"
	"sync"
	"time"

	"voice-assistant-be/internal/pkg/logger"
	"voice-assistant-be/pkg/rag"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	ragStatusSearching = "searching"
	ragStatusNoResults = "no_results"

	toolErrorOutput = "Error retrieving information."

	// How long Draining waits for in-flight tool tasks before summarizing.
	toolDrainTimeout = 3 * time.Second
)

// Searcher answers retrieval tool calls. *rag.Retriever satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) (string, []rag.Citation, error)
}

// EventPublisher receives session lifecycle notifications. Best effort; a
// failed publish never affects the session.
type EventPublisher interface {
	SessionStarted(sessionID, kbID string)
	SessionEnded(sessionID, kbID string, transcriptLen int)
}

// DialFunc opens the upstream link with the given initial configuration.
type DialFunc func(ctx context.Context, sessionCfg SessionConfig) (UpstreamLink, error)

// Orchestrator runs one duplex voice session: two reader loops pumping frames
// between the client and the speech model, tool tasks answering retrieval
// calls, and a drain phase that pushes a summary before closing.
type Orchestrator struct {
	sessionID string
	state     *SessionState
	searcher  Searcher
	summarize *Summarizer
	dial      DialFunc
	events    EventPublisher
	logger    logger.ILogger
	topK      int

	client   *clientConn
	upstream UpstreamLink
	toolWG   sync.WaitGroup
}

func NewOrchestrator(
	state *SessionState,
	searcher Searcher,
	summarizer *Summarizer,
	dial DialFunc,
	events EventPublisher,
	log logger.ILogger,
	topK int,
) *Orchestrator {
	return &Orchestrator{
		sessionID: uuid.NewString(),
		state:     state,
		searcher:  searcher,
		summarize: summarizer,
		dial:      dial,
		events:    events,
		logger:    log,
		topK:      topK,
	}
}

func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Run drives the session from connect to close. It returns once both reader
// loops have stopped and the drain phase is complete. A failed upstream dial
// is the only error surfaced; everything after Active degrades in place.
func (o *Orchestrator) Run(ctx context.Context, stream ClientStream) error {
	o.client = newClientConn(stream)

	upstream, err := o.dial(ctx, o.state.InitialSessionConfig())
	if err != nil {
		o.logger.Error("VoiceSession", "Upstream connect failed", map[string]interface{}{
			"session_id": o.sessionID,
			"error":      err.Error(),
		})
		return err
	}
	o.upstream = upstream

	o.logger.Info("VoiceSession", "Session active", map[string]interface{}{
		"session_id": o.sessionID,
		"kb_id":      o.state.KnowledgeBaseID(),
		"has_kb":     o.state.HasKnowledgeBase(),
	})
	if o.events != nil {
		o.events.SessionStarted(o.sessionID, o.state.KnowledgeBaseID())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{}, 2)

	go func() {
		o.clientLoop(ctx)
		done <- struct{}{}
	}()
	go func() {
		o.upstreamLoop(ctx)
		done <- struct{}{}
	}()

	// First loop to exit starts the drain. Upstream closes right away so no
	// more model output flows; the client stays open until the summary has
	// been pushed, then its close unblocks a still-pending client read.
	<-done
	cancel()
	o.upstream.Close()

	o.drain(ctx)

	o.client.Close()
	<-done
	if o.events != nil {
		o.events.SessionEnded(o.sessionID, o.state.KnowledgeBaseID(), len(o.state.Transcript()))
	}
	o.logger.Info("VoiceSession", "Session closed", map[string]interface{}{
		"session_id": o.sessionID,
	})
	return nil
}

// clientLoop pumps client frames upstream until the client socket closes or
// the context is cancelled.
func (o *Orchestrator) clientLoop(ctx context.Context) {
	for {
		messageType, data, err := o.client.ReadMessage()
		if err != nil {
			o.logger.Info("VoiceSession", "Client transport closed", map[string]interface{}{
				"session_id": o.sessionID,
			})
			return
		}
		if ctx.Err() != nil {
			return
		}
		if messageType != websocket.TextMessage {
			o.logger.Warn("VoiceSession", "Dropping non-text client message", map[string]interface{}{
				"session_id":   o.sessionID,
				"message_type": messageType,
			})
			continue
		}

		frame, err := decodeClientFrame(data)
		if err != nil {
			o.logger.Warn("VoiceSession", "Dropping malformed client frame", map[string]interface{}{
				"session_id": o.sessionID,
				"error":      err.Error(),
			})
			continue
		}

		switch frame.Type {
		case clientTagAudioData:
			o.sendUpstream(audioAppendFrame{Type: clientTagAudioAppend, Audio: frame.Payload})

		case clientTagAudioAppend:
			// Already in upstream shape; forward as-is.
			o.sendUpstream(audioAppendFrame{Type: clientTagAudioAppend, Audio: frame.Audio})

		case clientTagUpdateConfig:
			o.applyConfigUpdate(frame.SettingsPatch)

		default:
			o.logger.Warn("VoiceSession", "Dropping unrecognized client frame", map[string]interface{}{
				"session_id": o.sessionID,
				"type":       frame.Type,
			})
		}
	}
}

func (o *Orchestrator) applyConfigUpdate(patch SettingsPatch) {
	voicePatched, changed := o.state.ApplySettingsPatch(patch)
	if !changed {
		return
	}
	o.logger.Info("VoiceSession", "Session settings updated", map[string]interface{}{
		"session_id":    o.sessionID,
		"voice_patched": voicePatched,
	})
	o.sendUpstream(newSessionUpdate(o.state.UpdateConfigFor(voicePatched)))
}

// upstreamLoop pumps model events to the client until the upstream socket
// closes or the context is cancelled.
func (o *Orchestrator) upstreamLoop(ctx context.Context) {
	for {
		data, err := o.upstream.Receive()
		if err != nil {
			o.logger.Info("VoiceSession", "Upstream transport closed", map[string]interface{}{
				"session_id": o.sessionID,
			})
			return
		}
		if ctx.Err() != nil {
			return
		}

		event, err := decodeUpstreamEvent(data)
		if err != nil {
			o.logger.Warn("VoiceSession", "Dropping malformed upstream event", map[string]interface{}{
				"session_id": o.sessionID,
				"error":      err.Error(),
			})
			continue
		}

		switch event.Type {
		case upstreamTagAudioDelta:
			o.sendClient(serverAudioDelta{Type: serverTagAudioDelta, Payload: event.Delta})

		case upstreamTagInputTranscript:
			o.state.AppendTranscript("user", event.Transcript)
			o.sendClient(serverTranscript{Type: serverTagTranscript, Role: "user", Text: event.Transcript})

		case upstreamTagResponseDone:
			for _, text := range assistantTranscripts(event) {
				o.state.AppendTranscript("assistant", text)
				o.sendClient(serverTranscript{Type: serverTagTranscript, Role: "assistant", Text: text})
			}

		case upstreamTagFunctionCall:
			if event.Name != RetrievalToolName {
				o.logger.Warn("VoiceSession", "Ignoring call for unknown tool", map[string]interface{}{
					"session_id": o.sessionID,
					"name":       event.Name,
				})
				continue
			}
			o.toolWG.Add(1)
			go o.runToolCall(event.CallID, event.Arguments)

		case upstreamTagSpeechStarted:
			// Client first so playback stops before the model is told.
			o.sendClient(serverInterrupt{Type: serverTagInterrupt})
			o.sendUpstream(responseCancelFrame{Type: "response.cancel"})

		default:
			o.logger.Debug("VoiceSession", "Ignoring upstream event", map[string]interface{}{
				"session_id": o.sessionID,
				"type":       event.Type,
			})
		}
	}
}

// assistantTranscripts pulls the spoken text out of a completed response, one
// entry per audio-content item. Text-content items never carry the spoken
// transcript and are skipped.
func assistantTranscripts(event *upstreamEvent) []string {
	if event.Response == nil {
		return nil
	}
	var texts []string
	for _, item := range event.Response.Output {
		for _, content := range item.Content {
			if content.Type == "audio" && content.Transcript != "" {
				texts = append(texts, content.Transcript)
			}
		}
	}
	return texts
}

// runToolCall answers one retrieval call. It runs on the background context
// so an in-flight search outlives a session cancel, and it always completes
// the two-step handshake: a function_call_output for the call_id, then a
// response.create. Skipping either leaves the model waiting forever.
func (o *Orchestrator) runToolCall(callID, arguments string) {
	defer o.toolWG.Done()

	var args toolArguments
	if err := parseToolArguments(arguments, &args); err != nil {
		o.logger.Warn("VoiceSession", "Malformed tool arguments", map[string]interface{}{
			"session_id": o.sessionID,
			"call_id":    callID,
			"error":      err.Error(),
		})
	}

	o.sendClient(serverRagStatus{Type: serverTagRagStatus, Status: ragStatusSearching, Query: args.Query})

	output := toolErrorOutput
	var citations []rag.Citation
	contextText, hits, err := o.searcher.Search(context.Background(), args.Query, o.topK)
	if err != nil {
		o.logger.Error("VoiceSession", "Retrieval failed", map[string]interface{}{
			"session_id": o.sessionID,
			"call_id":    callID,
			"error":      err.Error(),
		})
	} else {
		output = contextText
		citations = hits
	}

	if len(citations) > 0 {
		o.sendClient(serverGrounding{Type: serverTagGrounding, Citations: citations})
	} else {
		o.sendClient(serverRagStatus{Type: serverTagRagStatus, Status: ragStatusNoResults})
	}

	// The handshake goes through even when retrieval failed; the model speaks
	// the degraded answer instead of stalling.
	o.sendUpstream(newFunctionCallOutput(callID, output))
	o.sendUpstream(responseCreateFrame{Type: "response.create"})
}

// drain waits briefly for tool tasks, generates the summary and pushes it to
// the client. Every step is best effort; the client may already be gone.
func (o *Orchestrator) drain(ctx context.Context) {
	waited := make(chan struct{})
	go func() {
		o.toolWG.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(toolDrainTimeout):
		o.logger.Warn("VoiceSession", "Tool tasks still running at drain timeout", map[string]interface{}{
			"session_id": o.sessionID,
		})
	}

	text := o.summarize.Summarize(context.Background(), o.state.Transcript())
	if err := o.client.SendJSON(serverSummary{Type: serverTagSummary, Text: text}); err != nil {
		o.logger.Debug("VoiceSession", "Summary push failed", map[string]interface{}{
			"session_id": o.sessionID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) sendClient(v interface{}) {
	if err := o.client.SendJSON(v); err != nil {
		o.logger.Debug("VoiceSession", "Client write failed", map[string]interface{}{
			"session_id": o.sessionID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) sendUpstream(v interface{}) {
	if err := o.upstream.Send(v); err != nil {
		o.logger.Debug("VoiceSession", "Upstream write failed", map[string]interface{}{
			"session_id": o.sessionID,
			"error":      err.Error(),
		})
	}
}
