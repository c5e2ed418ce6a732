package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientFrameAudio(t *testing.T) {
	frame, err := decodeClientFrame([]byte(`{"type":"audio_data","payload":"UklGRg=="}`))

	require.NoError(t, err)
	assert.Equal(t, clientTagAudioData, frame.Type)
	assert.Equal(t, "UklGRg==", frame.Payload)
}

func TestDecodeClientFrameUpdateConfig(t *testing.T) {
	frame, err := decodeClientFrame([]byte(`{"type":"update_config","voice_name":"alloy","unknown_key":true}`))

	require.NoError(t, err)
	assert.Equal(t, clientTagUpdateConfig, frame.Type)
	require.NotNil(t, frame.VoiceName)
	assert.Equal(t, "alloy", *frame.VoiceName)
	assert.Nil(t, frame.AgentTone)
}

func TestDecodeClientFrameMissingType(t *testing.T) {
	_, err := decodeClientFrame([]byte(`{"payload":"x"}`))
	assert.Error(t, err)
}

func TestDecodeClientFrameMalformed(t *testing.T) {
	_, err := decodeClientFrame([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeUpstreamEventResponseDone(t *testing.T) {
	raw := `{
		"type": "response.done",
		"response": {
			"output": [
				{"type": "function_call", "content": []},
				{"type": "message", "content": [
					{"type": "text", "transcript": ""},
					{"type": "audio", "transcript": "Hello there."}
				]}
			]
		}
	}`

	event, err := decodeUpstreamEvent([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, upstreamTagResponseDone, event.Type)
	assert.Equal(t, []string{"Hello there."}, assistantTranscripts(event))
}

func TestAssistantTranscriptIgnoresNonAudioContent(t *testing.T) {
	raw := `{"type":"response.done","response":{"output":[{"type":"message","content":[{"type":"text","transcript":"typed"}]}]}}`

	event, err := decodeUpstreamEvent([]byte(raw))

	require.NoError(t, err)
	assert.Empty(t, assistantTranscripts(event))
}

func TestParseToolArguments(t *testing.T) {
	var args toolArguments
	require.NoError(t, parseToolArguments(`{"query":"quarterly revenue"}`, &args))
	assert.Equal(t, "quarterly revenue", args.Query)

	assert.Error(t, parseToolArguments(`not json`, &args))
}

func TestNewFunctionCallOutputShape(t *testing.T) {
	frame := newFunctionCallOutput("call_42", "context text")

	assert.Equal(t, "conversation.item.create", frame.Type)
	assert.Equal(t, "function_call_output", frame.Item.Type)
	assert.Equal(t, "call_42", frame.Item.CallID)
	assert.Equal(t, "context text", frame.Item.Output)
}
