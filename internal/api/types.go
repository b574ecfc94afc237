package api

import (
	"time"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/domain/questionbank"
	"github.com/denkain-drill/backend/internal/service"
)

// ── Requests ────────────────────────────────────────────────────────────────

// CreateSessionRequest selects a dataset and mode for a new session. An empty
// dataset selects the first one of the catalog.
type CreateSessionRequest struct {
	Year    string `json:"year"`
	Term    string `json:"term"`
	Subject string `json:"subject"`
	Mode    string `json:"mode,omitempty" enums:"order,random,wrong,weak"`
}

type SelectDatasetRequest struct {
	Year    string `json:"year"`
	Term    string `json:"term"`
	Subject string `json:"subject"`
}

type SetModeRequest struct {
	Mode string `json:"mode" enums:"order,random,wrong,weak"`
}

type SelectChoiceRequest struct {
	ChoiceID string `json:"choice_id"`
}

// ── Responses ───────────────────────────────────────────────────────────────

type CatalogResponse struct {
	Years   []catalog.Year      `json:"years"`
	Default *catalog.DatasetRef `json:"default,omitempty"`
	Modes   []ModeResponse      `json:"modes"`
}

type ModeResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ChoiceResponse struct {
	ID   string `json:"id"`
	Text string `json:"text,omitempty"`
}

// QuestionResponse never carries the answer; it is revealed by the outcome.
type QuestionResponse struct {
	ID    string                  `json:"id"`
	No    questionbank.QuestionNo `json:"no" swaggertype:"string"`
	Text  string                  `json:"text,omitempty"`
	Image string                  `json:"image,omitempty"`
	// ImageURL is where this server serves the image.
	ImageURL string           `json:"image_url,omitempty"`
	Choices  []ChoiceResponse `json:"choices"`
}

type OutcomeResponse struct {
	QuestionID       string `json:"question_id"`
	SelectedChoiceID string `json:"selected_choice_id"`
	CorrectChoiceID  string `json:"correct_choice_id"`
	Correct          bool   `json:"correct"`
	CorrectPosition  int    `json:"correct_position"`
	Streak           int    `json:"streak"`
	Seen             int    `json:"seen"`
	Wrong            int    `json:"wrong"`
}

type SessionResponse struct {
	ID           string             `json:"id"`
	Status       string             `json:"status" enums:"idle,loading,load_error,empty,question,complete"`
	Dataset      catalog.DatasetRef `json:"dataset"`
	DatasetLabel string             `json:"dataset_label,omitempty"`
	Mode         string             `json:"mode"`
	ModeLabel    string             `json:"mode_label"`
	Position     int                `json:"position"`
	Total        int                `json:"total"`
	Question     *QuestionResponse  `json:"question,omitempty"`
	Selected     string             `json:"selected,omitempty"`
	Outcome      *OutcomeResponse   `json:"outcome,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// ActionResponse answers select, check and next. Applied is false when the
// action was not valid in the current state; the session is unchanged then.
type ActionResponse struct {
	Applied bool            `json:"applied"`
	Warning string          `json:"warning,omitempty"`
	Session SessionResponse `json:"session"`
}

type QuestionStatResponse struct {
	QuestionID string                  `json:"question_id"`
	No         questionbank.QuestionNo `json:"no" swaggertype:"string"`
	Seen       int                     `json:"seen"`
	Correct    int                     `json:"correct"`
	Wrong      int                     `json:"wrong"`
	Streak     int                     `json:"streak"`
	Last       *time.Time              `json:"last"`
	Weakness   float64                 `json:"weakness"`
}

type DatasetStatsResponse struct {
	Dataset        catalog.DatasetRef     `json:"dataset"`
	TotalQuestions int                    `json:"total_questions"`
	Seen           int                    `json:"seen"`
	Correct        int                    `json:"correct"`
	Wrong          int                    `json:"wrong"`
	Accuracy       float64                `json:"accuracy"`
	Questions      []QuestionStatResponse `json:"questions"`
}

// ── Mapping ─────────────────────────────────────────────────────────────────

func modeResponses() []ModeResponse {
	modes := practicesession.Modes()
	out := make([]ModeResponse, len(modes))
	for i, m := range modes {
		out[i] = ModeResponse{ID: string(m), Label: m.Label()}
	}
	return out
}

func toSessionResponse(s service.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:           s.TrainerID,
		Status:       string(s.Status),
		Dataset:      s.Dataset,
		DatasetLabel: s.DatasetLabel,
		Mode:         string(s.Mode),
		ModeLabel:    s.Mode.Label(),
		Position:     s.Position,
		Total:        s.Total,
		Selected:     s.Selected,
	}
	if s.LoadError != nil {
		resp.Error = s.LoadError.Error()
	}

	if s.Question != nil {
		q := &QuestionResponse{
			ID:       s.Question.ID,
			No:       s.Question.No,
			Text:     s.Question.Text,
			Image:    s.Question.Image,
			ImageURL: fileURL(s.Question.Image),
			Choices:  make([]ChoiceResponse, len(s.Choices)),
		}
		for i, c := range s.Choices {
			q.Choices[i] = ChoiceResponse{ID: c.ID, Text: c.Text}
		}
		resp.Question = q

		if s.Outcome != nil {
			resp.Outcome = &OutcomeResponse{
				QuestionID:       s.Outcome.QuestionID,
				SelectedChoiceID: s.Outcome.SelectedChoiceID,
				CorrectChoiceID:  s.Question.Answer,
				Correct:          s.Outcome.Correct,
				CorrectPosition:  s.Outcome.CorrectPosition,
				Streak:           s.Outcome.Streak,
				Seen:             s.Outcome.Record.Seen,
				Wrong:            s.Outcome.Record.Wrong,
			}
		}
	}
	return resp
}

func toDatasetStatsResponse(r service.DatasetReport) DatasetStatsResponse {
	resp := DatasetStatsResponse{
		Dataset:        r.Dataset,
		TotalQuestions: r.Summary.TotalQuestions,
		Seen:           r.Summary.Seen,
		Correct:        r.Summary.Correct,
		Wrong:          r.Summary.Wrong,
		Accuracy:       r.Summary.Accuracy(),
		Questions:      make([]QuestionStatResponse, len(r.Questions)),
	}
	for i, q := range r.Questions {
		resp.Questions[i] = QuestionStatResponse{
			QuestionID: q.QuestionID,
			No:         q.No,
			Seen:       q.Record.Seen,
			Correct:    q.Record.Correct,
			Wrong:      q.Record.Wrong,
			Streak:     q.Record.Streak,
			Last:       q.Record.Last,
			Weakness:   q.Weakness,
		}
	}
	return resp
}
