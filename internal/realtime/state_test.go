package realtime

import (
	"fmt"
	"testing"

	"voice-assistant-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVoiceConfig() config.VoiceConfig {
	return config.VoiceConfig{
		BaseInstructions: "You are a helpful voice assistant.",
		VoiceName:        "shimmer",
		AgentTone:        "warm",
		SpeakingRate:     "normal pace",
		EmotionStyle:     "empathetic",
		RetrievalTopK:    3,
	}
}

func strPtr(s string) *string { return &s }

func TestApplySettingsPatchChangesValues(t *testing.T) {
	s := NewSessionState("docs", testVoiceConfig())

	voicePatched, changed := s.ApplySettingsPatch(SettingsPatch{
		VoiceName: strPtr("alloy"),
		AgentTone: strPtr("formal"),
	})

	assert.True(t, voicePatched)
	assert.True(t, changed)
	assert.Equal(t, "alloy", s.Settings().VoiceName)
	assert.Equal(t, "formal", s.Settings().AgentTone)
	assert.Equal(t, "normal pace", s.Settings().SpeakingRate)
}

func TestApplySettingsPatchNoOp(t *testing.T) {
	s := NewSessionState("docs", testVoiceConfig())

	voicePatched, changed := s.ApplySettingsPatch(SettingsPatch{})
	assert.False(t, voicePatched)
	assert.False(t, changed)

	// Same values as current settings count as a no-op for the update push,
	// even though the voice key was present.
	voicePatched, changed = s.ApplySettingsPatch(SettingsPatch{
		VoiceName: strPtr("shimmer"),
		AgentTone: strPtr("warm"),
	})
	assert.True(t, voicePatched)
	assert.False(t, changed)
}

func TestApplySettingsPatchToneOnlyDoesNotFlagVoice(t *testing.T) {
	s := NewSessionState("docs", testVoiceConfig())

	voicePatched, changed := s.ApplySettingsPatch(SettingsPatch{AgentTone: strPtr("playful")})

	assert.False(t, voicePatched)
	assert.True(t, changed)
}

func TestBuildInstructionsIsDeterministic(t *testing.T) {
	s := NewSessionState("docs", testVoiceConfig())

	first := s.BuildInstructions()
	second := s.BuildInstructions()

	assert.Equal(t, first, second)
	assert.Contains(t, first, "warm tone")
	assert.Contains(t, first, "normal pace")
	assert.Contains(t, first, "empathetic")
	assert.Contains(t, first, RetrievalToolName)
}

func TestBuildInstructionsWithoutKnowledgeBase(t *testing.T) {
	s := NewSessionState("default", testVoiceConfig())

	assert.False(t, s.HasKnowledgeBase())
	assert.NotContains(t, s.BuildInstructions(), RetrievalToolName)
}

func TestTranscriptPreservesArrivalOrder(t *testing.T) {
	s := NewSessionState("docs", testVoiceConfig())

	for i := 0; i < 3; i++ {
		s.AppendTranscript("user", fmt.Sprintf("question %d", i))
		s.AppendTranscript("assistant", fmt.Sprintf("answer %d", i))
	}

	transcript := s.Transcript()
	require.Len(t, transcript, 6)
	assert.Equal(t, TranscriptEntry{Role: "user", Text: "question 0"}, transcript[0])
	assert.Equal(t, TranscriptEntry{Role: "assistant", Text: "answer 2"}, transcript[5])
}

func TestInitialSessionConfigDeclaresToolOnlyWithKB(t *testing.T) {
	withKB := NewSessionState("docs", testVoiceConfig()).InitialSessionConfig()
	require.Len(t, withKB.Tools, 1)
	assert.Equal(t, RetrievalToolName, withKB.Tools[0].Name)
	assert.Equal(t, "shimmer", withKB.Voice)
	assert.Equal(t, "whisper-1", withKB.InputAudioTranscription.Model)
	assert.Equal(t, "server_vad", withKB.TurnDetection.Type)
	assert.Equal(t, 0.8, withKB.Temperature)

	withoutKB := NewSessionState("default", testVoiceConfig()).InitialSessionConfig()
	assert.Empty(t, withoutKB.Tools)
}

func TestUpdateConfigForGatesVoice(t *testing.T) {
	s := NewSessionState("docs", testVoiceConfig())

	withVoice := s.UpdateConfigFor(true)
	assert.Equal(t, "shimmer", withVoice.Voice)
	assert.NotEmpty(t, withVoice.Instructions)

	withoutVoice := s.UpdateConfigFor(false)
	assert.Empty(t, withoutVoice.Voice)
	assert.NotEmpty(t, withoutVoice.Instructions)
}
