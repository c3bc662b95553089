package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxQuestionTextLength bounds Question.Text and Choice.Text.
const MaxQuestionTextLength = 200

type Question struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	PublishTime time.Time `json:"publish_time"`
	Choices     []Choice  `json:"choices,omitempty"`
}

type Choice struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Votes      int64     `json:"vote_count"`
}

// IsPublished reports whether q is visible at now.
func (q *Question) IsPublished(now time.Time) bool {
	return !q.PublishTime.After(now)
}

// WasPublishedRecently is true for questions published within the last day,
// future questions included in the "not recent" side.
func (q *Question) WasPublishedRecently(now time.Time) bool {
	return !q.PublishTime.Before(now.Add(-24*time.Hour)) && q.IsPublished(now)
}

// ChoiceStats is a choice together with its share of the question's votes.
type ChoiceStats struct {
	Choice
	Percentage float64 `json:"percentage"`
}

type QuestionResults struct {
	Question   Question      `json:"question"`
	TotalVotes int64         `json:"total_votes"`
	Choices    []ChoiceStats `json:"choices"`
}

// Results computes per-choice percentages over the choices loaded on q.
func (q *Question) Results() QuestionResults {
	var total int64
	for _, c := range q.Choices {
		total += c.Votes
	}

	stats := make([]ChoiceStats, 0, len(q.Choices))
	for _, c := range q.Choices {
		percentage := 0.0
		if total > 0 {
			percentage = (float64(c.Votes) / float64(total)) * 100
		}
		stats = append(stats, ChoiceStats{Choice: c, Percentage: percentage})
	}

	summary := *q
	summary.Choices = nil
	return QuestionResults{Question: summary, TotalVotes: total, Choices: stats}
}
