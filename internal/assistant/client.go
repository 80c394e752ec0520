package assistant

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/pkg/logger"
)

// Client talks to the natural-language assistant service: JSON text queries
// and multipart voice queries against a fixed conversation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type QueryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	UserRole       string `json:"user_role"`
}

type QueryResponse struct {
	ResponseText string `json:"response_text"`
}

// VoiceResponse is the parsed voice-query reply. Audio holds the decoded
// audio_response bytes, ready for a playback sink.
type VoiceResponse struct {
	Transcription string
	ResponseText  string
	Audio         []byte
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Query sends a typed question and returns the assistant's text reply.
func (c *Client) Query(ctx context.Context, text, conversationID, userRole string) (string, error) {
	body, err := json.Marshal(QueryRequest{
		Query:          text,
		ConversationID: conversationID,
		UserRole:       userRole,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/nlp/query", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}

	var parsed QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse assistant response: %w", err)
	}

	logger.Debug("Assistant query answered",
		zap.String("conversation_id", conversationID),
		zap.Int("response_length", len(parsed.ResponseText)),
	)

	return parsed.ResponseText, nil
}

// VoiceQuery uploads a recorded audio clip and returns the transcription, the
// text reply and the decoded spoken reply.
func (c *Client) VoiceQuery(ctx context.Context, audio []byte, conversationID, userRole string) (*VoiceResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "query.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio part: %w", err)
	}

	if err := writer.WriteField("conversation_id", conversationID); err != nil {
		return nil, fmt.Errorf("failed to write conversation_id field: %w", err)
	}
	if err := writer.WriteField("user_role", userRole); err != nil {
		return nil, fmt.Errorf("failed to write user_role field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/nlp/voice/query", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send voice query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Transcription string `json:"transcription"`
		NLPData       struct {
			ResponseText string `json:"response_text"`
		} `json:"nlp_data"`
		AudioResponse string `json:"audio_response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse voice response: %w", err)
	}

	var spoken []byte
	if parsed.AudioResponse != "" {
		spoken, err = base64.StdEncoding.DecodeString(parsed.AudioResponse)
		if err != nil {
			return nil, fmt.Errorf("failed to decode audio response: %w", err)
		}
	}

	logger.Debug("Voice query answered",
		zap.String("conversation_id", conversationID),
		zap.Int("transcription_length", len(parsed.Transcription)),
		zap.Int("audio_bytes", len(spoken)),
	)

	return &VoiceResponse{
		Transcription: parsed.Transcription,
		ResponseText:  parsed.NLPData.ResponseText,
		Audio:         spoken,
	}, nil
}
