package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

const (
	maxTTSBytes   = 5000
	ttsTimeout    = 15 * time.Second
	speakingRate  = 0.9
)

// ErrNoTTS is returned when no TTS API key is configured.
var ErrNoTTS = errors.New("text-to-speech not configured")

// Voice selects the synthesis language and voice.
type Voice struct {
	LanguageCode string
	Gender       texttospeechpb.SsmlVoiceGender
}

var (
	voiceEnglish  = Voice{LanguageCode: "en-SG", Gender: texttospeechpb.SsmlVoiceGender_FEMALE}
	voiceMandarin = Voice{LanguageCode: "cmn-CN", Gender: texttospeechpb.SsmlVoiceGender_FEMALE}
)

// TTSRequest is the body of POST /api/tts.
type TTSRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// voiceFor maps the client's language tag to a voice.
func voiceFor(language string) (Voice, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "", "en", "en-sg", "english":
		return voiceEnglish, nil
	case "zh", "zh-cn", "cmn", "cmn-cn", "mandarin", "chinese":
		return voiceMandarin, nil
	default:
		return Voice{}, invalid("language", "must be en or zh")
	}
}

// Validate trims the text and resolves the voice.
func (r *TTSRequest) Validate() (Voice, error) {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return Voice{}, invalid("text", "required")
	}
	if len(r.Text) > maxTTSBytes {
		return Voice{}, invalid("text", fmt.Sprintf("at most %d bytes", maxTTSBytes))
	}
	return voiceFor(r.Language)
}

// Synthesizer turns text into base64 encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) (string, error)
}

// speechClient is the part of the Cloud Text-to-Speech client GoogleTTS uses.
type speechClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GoogleTTS calls Cloud Text-to-Speech with an API key.
type GoogleTTS struct {
	client speechClient
}

// NewGoogleTTS dials Cloud Text-to-Speech. endpoint overrides the default
// host when set.
func NewGoogleTTS(ctx context.Context, endpoint, apiKey string) (*GoogleTTS, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create tts client: %w", err)
	}
	return &GoogleTTS{client: client}, nil
}

// Synthesize makes a single request and returns the base64 MP3 payload.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string, voice Voice) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ttsTimeout)
	defer cancel()

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voice.LanguageCode,
			SsmlGender:   voice.Gender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  speakingRate,
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return "", errors.New("tts returned no audio")
	}
	return base64.StdEncoding.EncodeToString(resp.GetAudioContent()), nil
}

func (g *GoogleTTS) Close() error {
	return g.client.Close()
}
