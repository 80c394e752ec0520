package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retail-vision/dashboard/internal/analytics"
)

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatMessage is one entry of the session transcript. The transcript is
// append-only and lives only as long as the process.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a point-in-time copy of the dashboard state, safe to serialize
// while polling continues.
type Snapshot struct {
	BranchID           string                     `json:"branch_id"`
	KPIs               []analytics.KPISample      `json:"kpis"`
	Situation          analytics.Situation        `json:"situation"`
	Recommendations    []analytics.Recommendation `json:"recommendations"`
	Chat               []ChatMessage              `json:"chat"`
	KPIsUpdatedAt      time.Time                  `json:"kpis_updated_at"`
	SituationUpdatedAt time.Time                  `json:"situation_updated_at"`
}

// Store holds the in-memory session state. The KPI series and the situation
// report are each replaced wholesale per poll half; a failed half keeps its
// previous value, so the two halves carry independent freshness stamps.
type Store struct {
	mu                 sync.RWMutex
	branchID           string
	kpis               []analytics.KPISample
	situation          analytics.Situation
	recommendations    []analytics.Recommendation
	chat               []ChatMessage
	kpisUpdatedAt      time.Time
	situationUpdatedAt time.Time
}

func NewStore(branchID string) *Store {
	return &Store{
		branchID: branchID,
	}
}

func (s *Store) ReplaceKPIs(samples []analytics.KPISample, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.kpis = samples
	s.kpisUpdatedAt = at
}

func (s *Store) ReplaceSituation(report *analytics.SituationReport, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.situation = report.Situation
	s.recommendations = report.Recommendations
	s.situationUpdatedAt = at
}

// AppendChat appends one transcript entry and returns it with its generated
// id and timestamp.
func (s *Store) AppendChat(role, text string) ChatMessage {
	msg := ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = append(s.chat, msg)
	return msg
}

func (s *Store) ChatLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chat)
}

func (s *Store) Recommendations() []analytics.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]analytics.Recommendation, len(s.recommendations))
	copy(out, s.recommendations)
	return out
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		BranchID:           s.branchID,
		Situation:          s.situation,
		KPIsUpdatedAt:      s.kpisUpdatedAt,
		SituationUpdatedAt: s.situationUpdatedAt,
	}

	snap.KPIs = make([]analytics.KPISample, len(s.kpis))
	copy(snap.KPIs, s.kpis)

	snap.Recommendations = make([]analytics.Recommendation, len(s.recommendations))
	copy(snap.Recommendations, s.recommendations)

	snap.Chat = make([]ChatMessage, len(s.chat))
	copy(snap.Chat, s.chat)

	return snap
}
