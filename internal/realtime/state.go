package realtime

import (
	"fmt"
	"sync"

	"voice-assistant-be/internal/config"
	"voice-assistant-be/pkg/rag"
)

// VoiceSettings are free-form labels interpreted by the upstream model; the
// relay never validates them.
type VoiceSettings struct {
	VoiceName    string
	AgentTone    string
	SpeakingRate string
	EmotionStyle string
}

// TranscriptEntry is one finalized utterance, in arrival order.
type TranscriptEntry struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// SessionState holds the mutable per-session configuration and the running
// transcript. Both reader goroutines touch it, so access is mutex-guarded.
type SessionState struct {
	mu sync.Mutex

	kbID             string
	baseInstructions string
	settings         VoiceSettings
	transcript       []TranscriptEntry
}

func NewSessionState(kbID string, voiceCfg config.VoiceConfig) *SessionState {
	return &SessionState{
		kbID:             kbID,
		baseInstructions: voiceCfg.BaseInstructions,
		settings: VoiceSettings{
			VoiceName:    voiceCfg.VoiceName,
			AgentTone:    voiceCfg.AgentTone,
			SpeakingRate: voiceCfg.SpeakingRate,
			EmotionStyle: voiceCfg.EmotionStyle,
		},
	}
}

func (s *SessionState) KnowledgeBaseID() string {
	return s.kbID
}

func (s *SessionState) HasKnowledgeBase() bool {
	return s.kbID != rag.NoKnowledgeBase
}

func (s *SessionState) Settings() VoiceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// BuildInstructions derives the system instruction text from the current
// settings. Deterministic: the same settings always yield the same text.
func (s *SessionState) BuildInstructions() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildInstructionsLocked()
}

func (s *SessionState) buildInstructionsLocked() string {
	text := fmt.Sprintf(
		"%s Speaking Style: Speak with a %s tone. Pace: Speak at a %s. Emotion: Be %s.",
		s.baseInstructions,
		s.settings.AgentTone,
		s.settings.SpeakingRate,
		s.settings.EmotionStyle,
	)
	if s.kbID != rag.NoKnowledgeBase {
		text += " IMPORTANT: Use the '" + RetrievalToolName + "' tool to answer questions." +
			" If using the knowledge base, naturally weave the information into your spoken response."
	}
	return text
}

// ApplySettingsPatch merges recognized keys into the settings. It reports
// whether the patch named the voice selector (voice is re-sent upstream only
// then, to avoid disrupting an in-progress utterance) and whether anything
// actually changed (a no-op patch must not trigger an upstream
// session.update).
func (s *SessionState) ApplySettingsPatch(patch SettingsPatch) (voicePatched, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply := func(dst *string, src *string) bool {
		if src == nil || *src == *dst {
			return false
		}
		*dst = *src
		return true
	}

	voicePatched = patch.VoiceName != nil
	if apply(&s.settings.VoiceName, patch.VoiceName) {
		changed = true
	}
	if apply(&s.settings.AgentTone, patch.AgentTone) {
		changed = true
	}
	if apply(&s.settings.SpeakingRate, patch.SpeakingRate) {
		changed = true
	}
	if apply(&s.settings.EmotionStyle, patch.EmotionStyle) {
		changed = true
	}
	return voicePatched, changed
}

func (s *SessionState) AppendTranscript(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, TranscriptEntry{Role: role, Text: text})
}

// Transcript returns a copy of the accumulated transcript in arrival order.
func (s *SessionState) Transcript() []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// InitialSessionConfig is the full configuration pushed on connect. The
// retrieval tool is declared only when a real knowledge base is bound, so
// KB-less sessions never see the model attempt a tool call.
func (s *SessionState) InitialSessionConfig() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := SessionConfig{
		Instructions:            s.buildInstructionsLocked(),
		Voice:                   s.settings.VoiceName,
		InputAudioTranscription: &TranscriptionConfig{Model: "whisper-1"},
		TurnDetection: &TurnDetectionConfig{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMs:   300,
			SilenceDurationMs: 500,
		},
		ToolChoice:  "auto",
		Temperature: 0.8,
	}
	if s.kbID != rag.NoKnowledgeBase {
		cfg.Tools = []ToolDefinition{retrievalToolDefinition()}
	}
	return cfg
}

// UpdateConfigFor builds the incremental session.update after a settings
// patch: always fresh instructions, the voice selector only when the patch
// named it.
func (s *SessionState) UpdateConfigFor(voicePatched bool) SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := SessionConfig{Instructions: s.buildInstructionsLocked()}
	if voicePatched {
		cfg.Voice = s.settings.VoiceName
	}
	return cfg
}
