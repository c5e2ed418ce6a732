package realtime

import (
	"encoding/json"
	"fmt"

	"voice-assistant-be/pkg/rag"
)

// RetrievalToolName is the function the upstream model calls to ground its
// answers in the bound knowledge base.
const RetrievalToolName = "query_knowledge_base"

// Client → server frame tags.
const (
	clientTagAudioData    = "audio_data"
	clientTagAudioAppend  = "input_audio_buffer.append"
	clientTagUpdateConfig = "update_config"
)

// Server → client frame tags.
const (
	serverTagAudioDelta = "audio_delta"
	serverTagTranscript = "transcript"
	serverTagRagStatus  = "rag_status"
	serverTagGrounding  = "grounding"
	serverTagInterrupt  = "interrupt"
	serverTagSummary    = "summary"
)

// Upstream event tags the relay reacts to. Anything else is ignored.
const (
	upstreamTagAudioDelta      = "response.audio.delta"
	upstreamTagInputTranscript = "conversation.item.input_audio_transcription.completed"
	upstreamTagResponseDone    = "response.done"
	upstreamTagFunctionCall    = "response.function_call_arguments.done"
	upstreamTagSpeechStarted   = "input_audio_buffer.speech_started"
)

// clientFrame is the decoded form of one client → server JSON frame. The
// update_config settings ride at the top level next to the type tag, so one
// envelope covers every recognized variant.
type clientFrame struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
	Audio   string `json:"audio,omitempty"`
	SettingsPatch
}

// SettingsPatch carries the recognized update_config keys. Nil means "not in
// the patch"; unrecognized keys are dropped by the JSON decoder.
type SettingsPatch struct {
	VoiceName    *string `json:"voice_name,omitempty"`
	AgentTone    *string `json:"agent_tone,omitempty"`
	SpeakingRate *string `json:"speaking_rate,omitempty"`
	EmotionStyle *string `json:"emotion_style,omitempty"`
}

func decodeClientFrame(data []byte) (*clientFrame, error) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode client frame: %w", err)
	}
	if frame.Type == "" {
		return nil, fmt.Errorf("client frame missing 'type'")
	}
	return &frame, nil
}

// upstreamEvent is the decoded form of one upstream frame. Only the fields
// the relay needs are mapped; the discriminant drives an explicit switch with
// an "unknown tag" arm in the orchestrator.
type upstreamEvent struct {
	Type       string            `json:"type"`
	Delta      string            `json:"delta,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	CallID     string            `json:"call_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Arguments  string            `json:"arguments,omitempty"`
	Response   *upstreamResponse `json:"response,omitempty"`
}

type upstreamResponse struct {
	Output []upstreamOutputItem `json:"output"`
}

type upstreamOutputItem struct {
	Type    string                `json:"type"`
	Content []upstreamItemContent `json:"content"`
}

type upstreamItemContent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
}

func decodeUpstreamEvent(data []byte) (*upstreamEvent, error) {
	var event upstreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode upstream event: %w", err)
	}
	return &event, nil
}

// toolArguments is the JSON argument blob of a retrieval tool call.
type toolArguments struct {
	Query string `json:"query"`
}

func parseToolArguments(raw string, args *toolArguments) error {
	if err := json.Unmarshal([]byte(raw), args); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	return nil
}

// SessionConfig is the session.update payload pushed upstream on connect and
// after settings patches.
type SessionConfig struct {
	Instructions            string               `json:"instructions,omitempty"`
	Voice                   string               `json:"voice,omitempty"`
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`
	TurnDetection           *TurnDetectionConfig `json:"turn_detection,omitempty"`
	ToolChoice              string               `json:"tool_choice,omitempty"`
	Temperature             float64              `json:"temperature,omitempty"`
	Tools                   []ToolDefinition     `json:"tools,omitempty"`
}

type TranscriptionConfig struct {
	Model string `json:"model"`
}

type TurnDetectionConfig struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type ToolDefinition struct {
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func retrievalToolDefinition() ToolDefinition {
	return ToolDefinition{
		Type:        "function",
		Name:        RetrievalToolName,
		Description: "Search the internal knowledge base for facts.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Outbound client frames.

type serverAudioDelta struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

type serverTranscript struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Text string `json:"text"`
}

type serverRagStatus struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Query  string `json:"query,omitempty"`
}

type serverGrounding struct {
	Type      string         `json:"type"`
	Citations []rag.Citation `json:"citations"`
}

type serverInterrupt struct {
	Type string `json:"type"`
}

type serverSummary struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Outbound upstream frames.

type sessionUpdateFrame struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

func newSessionUpdate(session SessionConfig) sessionUpdateFrame {
	return sessionUpdateFrame{Type: "session.update", Session: session}
}

type audioAppendFrame struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type responseCancelFrame struct {
	Type string `json:"type"`
}

type responseCreateFrame struct {
	Type string `json:"type"`
}

type conversationItemCreateFrame struct {
	Type string                 `json:"type"`
	Item functionCallOutputItem `json:"item"`
}

type functionCallOutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

func newFunctionCallOutput(callID, output string) conversationItemCreateFrame {
	return conversationItemCreateFrame{
		Type: "conversation.item.create",
		Item: functionCallOutputItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}
