package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/analytics"
	"github.com/retail-vision/dashboard/internal/assistant"
	"github.com/retail-vision/dashboard/internal/metrics"
	"github.com/retail-vision/dashboard/pkg/logger"
)

// ApologyMessage is the synthetic bot reply substituted when the assistant
// cannot answer. It is the only thing a chat failure leaves behind.
const ApologyMessage = "Sorry, I couldn't process that request right now. Please try again."

// TaskCreator is the write side of the analytics service.
type TaskCreator interface {
	CreateTask(ctx context.Context, task analytics.TaskRequest) error
}

// AssistantService answers text and voice queries for a fixed conversation.
type AssistantService interface {
	Query(ctx context.Context, text, conversationID, userRole string) (string, error)
	VoiceQuery(ctx context.Context, audio []byte, conversationID, userRole string) (*assistant.VoiceResponse, error)
}

// AudioSink plays a spoken assistant reply.
type AudioSink interface {
	Play(ctx context.Context, audio []byte) error
}

// Identity is the fixed set of identifiers scoping every dispatched action.
type Identity struct {
	BranchID       string
	ActorID        string
	ConversationID string
	UserRole       string
}

// Dispatcher forwards user actions to the upstream services and folds the
// results into the transcript. The three operations are independent and
// stateless with respect to each other; none of them retries.
type Dispatcher struct {
	tasks     TaskCreator
	assistant AssistantService
	sink      AudioSink
	store     *Store
	identity  Identity
}

func NewDispatcher(tasks TaskCreator, assistantSvc AssistantService, sink AudioSink, store *Store, identity Identity) *Dispatcher {
	return &Dispatcher{
		tasks:     tasks,
		assistant: assistantSvc,
		sink:      sink,
		store:     store,
		identity:  identity,
	}
}

// ApproveRecommendation turns a displayed recommendation into an operational
// task. The recommendation list is not touched: no optimistic removal, the
// next poll decides what is still relevant. A failure surfaces to the caller
// as-is, with no state change.
func (d *Dispatcher) ApproveRecommendation(ctx context.Context, rec analytics.Recommendation) error {
	task := analytics.TaskRequest{
		BranchID:       d.identity.BranchID,
		RequestedBy:    d.identity.ActorID,
		Action:         rec.Action,
		Priority:       rec.Priority,
		ExpectedImpact: rec.ExpectedImpact,
	}

	if err := d.tasks.CreateTask(ctx, task); err != nil {
		metrics.ActionsDispatched.WithLabelValues("approve", "error").Inc()
		logger.Error("Failed to create task from recommendation",
			zap.String("action", rec.Action),
			zap.Error(err),
		)
		return fmt.Errorf("failed to approve recommendation: %w", err)
	}

	metrics.ActionsDispatched.WithLabelValues("approve", "ok").Inc()
	return nil
}

// SendTextQuery appends the user's text to the transcript, asks the
// assistant, and appends the reply. On failure the reply slot is filled with
// a single apology message; the user entry is never duplicated or dropped.
// Returns the entries appended by this call, in order.
func (d *Dispatcher) SendTextQuery(ctx context.Context, text string) []ChatMessage {
	userMsg := d.store.AppendChat(RoleUser, text)
	metrics.ChatMessages.WithLabelValues(RoleUser).Inc()

	reply, err := d.assistant.Query(ctx, text, d.identity.ConversationID, d.identity.UserRole)
	if err != nil {
		logger.Error("Assistant query failed", zap.Error(err))
		metrics.ActionsDispatched.WithLabelValues("chat", "error").Inc()
		botMsg := d.appendBot(ApologyMessage)
		return []ChatMessage{userMsg, botMsg}
	}

	metrics.ActionsDispatched.WithLabelValues("chat", "ok").Inc()
	botMsg := d.appendBot(reply)
	return []ChatMessage{userMsg, botMsg}
}

// VoiceResult is what a voice query leaves for the caller: the appended
// transcript entries and the spoken reply, if any.
type VoiceResult struct {
	Messages []ChatMessage
	Audio    []byte
}

// SendVoiceQuery uploads a recorded clip. On success the transcription goes
// into the transcript as the user's entry, the reply as the bot's, and the
// spoken reply is handed to the playback sink. On failure exactly one apology
// entry is appended.
func (d *Dispatcher) SendVoiceQuery(ctx context.Context, audio []byte) VoiceResult {
	resp, err := d.assistant.VoiceQuery(ctx, audio, d.identity.ConversationID, d.identity.UserRole)
	if err != nil {
		logger.Error("Voice query failed", zap.Error(err))
		metrics.ActionsDispatched.WithLabelValues("voice", "error").Inc()
		botMsg := d.appendBot(ApologyMessage)
		return VoiceResult{Messages: []ChatMessage{botMsg}}
	}

	metrics.ActionsDispatched.WithLabelValues("voice", "ok").Inc()

	userMsg := d.store.AppendChat(RoleUser, resp.Transcription)
	metrics.ChatMessages.WithLabelValues(RoleUser).Inc()
	botMsg := d.appendBot(resp.ResponseText)

	if len(resp.Audio) > 0 && d.sink != nil {
		if err := d.sink.Play(ctx, resp.Audio); err != nil {
			logger.Warn("Failed to play spoken reply", zap.Error(err))
		}
	}

	return VoiceResult{
		Messages: []ChatMessage{userMsg, botMsg},
		Audio:    resp.Audio,
	}
}

func (d *Dispatcher) appendBot(text string) ChatMessage {
	msg := d.store.AppendChat(RoleBot, text)
	metrics.ChatMessages.WithLabelValues(RoleBot).Inc()
	return msg
}
