package domain

import (
	"encoding/json"
	"time"
)

// Phase is the client-visible presentation state, derived from absolute
// timestamps rather than tracked server-side.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseQuestion  Phase = "question"
	PhaseAnswering Phase = "answering"
	PhaseRankings  Phase = "rankings"
)

// Duration marshals as milliseconds so snapshots stay language-neutral on the wire.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// GameState is the singleton record driving the live quiz. Version is bumped
// by the store on every committed write and is the compare-and-swap key.
type GameState struct {
	Version            int64      `json:"version"`
	SessionID          string     `json:"sessionId"`
	IsActive           bool       `json:"isActive"`
	IsPaused           bool       `json:"isPaused"`
	CurrentQuestionID  *string    `json:"currentQuestionId,omitempty"`
	QuestionStartTime  *time.Time `json:"questionStartTime,omitempty"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	DisplayDuration    Duration   `json:"questionDisplayDuration"`
	AnswerDuration     Duration   `json:"questionAnswerDuration"`
	CompletedQuestions int        `json:"completedQuestionCount"`
	TotalQuestions     int        `json:"totalQuestionCount"`
}

// Option is one of a question's four labeled choices ("A".."D").
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is immutable once published.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOption   string   `json:"correctOption"`
	Points          int      `json:"points"`
	DisplayDuration Duration `json:"displayDuration,omitempty"` // zero means use the configured default
	BonusEligible   bool     `json:"bonusEligible"`
	MaxBonus        int      `json:"maxBonus,omitempty"` // zero means no per-question cap
}

// AnswerSubmission is the scoring input from one viewer. A nil SelectedOption
// means the client timed out without answering.
type AnswerSubmission struct {
	UserID         string  `json:"userId"`
	QuestionID     string  `json:"questionId"`
	SelectedOption *string `json:"selectedOption,omitempty"`
	ElapsedMs      int64   `json:"elapsedMs"`
}

// AnswerRecord is the append-only scoring fact, unique per (user, question).
type AnswerRecord struct {
	UserID         string    `json:"userId"`
	QuestionID     string    `json:"questionId"`
	SessionID      string    `json:"sessionId"`
	SelectedOption *string   `json:"selectedOption,omitempty"`
	ElapsedMs      int64     `json:"elapsedMs"`
	Correct        bool      `json:"correct"`
	Awarded        int       `json:"awarded"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScoreResult summarizes one scored submission.
type ScoreResult struct {
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	TimedOut   bool   `json:"timedOut"`
	Awarded    int    `json:"awarded"`
}

// ScoringRules is versioned configuration; the engine falls back to
// DefaultScoringRules when no row exists.
type ScoringRules struct {
	Version            int `json:"version"`
	BaseScore          int `json:"baseScore"`
	RandomBonusMin     int `json:"randomBonusMin"`
	RandomBonusMax     int `json:"randomBonusMax"`
	ParticipationScore int `json:"participationScore"`
	TimeoutScore       int `json:"timeoutScore"`
}

// DefaultScoringRules mirrors the production configuration. Incorrect answers
// deliberately score above zero: attempting a question is never penalized
// relative to staying silent.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		BaseScore:          50,
		RandomBonusMin:     1,
		RandomBonusMax:     50,
		ParticipationScore: 50,
		TimeoutScore:       0,
	}
}

// LeaderboardEntry is one row of the aggregate score view.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

// Participant is a user eligible for the lottery.
type Participant struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// LotteryState is the singleton draw-coordination record. IsDrawing acts as a
// cooperative mutex across stateless handlers and must survive restarts.
type LotteryState struct {
	Version       int64      `json:"version"`
	IsActive      bool       `json:"isActive"`
	IsDrawing     bool       `json:"isDrawing"`
	CurrentDrawID *string    `json:"currentDrawId,omitempty"`
	DrawStartedAt *time.Time `json:"drawStartedAt,omitempty"`
}

// LotteryDrawRecord is the immutable audit snapshot of one completed draw.
type LotteryDrawRecord struct {
	ID               string        `json:"id"`
	Winner           Participant   `json:"winner"`
	Participants     []Participant `json:"participants"`
	ParticipantCount int           `json:"participantCount"`
	DrawnAt          time.Time     `json:"drawnAt"`
}
