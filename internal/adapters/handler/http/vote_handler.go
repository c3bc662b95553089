package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"github.com/vncsmyrnk/pollsite/internal/logger"
)

const idempotencyHeader = "Idempotency-Key"

type VoteHandler struct {
	votes     ports.VoteService
	questions ports.QuestionService
	guard     ports.VoteGuard
	now       func() time.Time
}

// NewVoteHandler builds the vote endpoint. guard may be nil, in which case
// Idempotency-Key headers are ignored.
func NewVoteHandler(votes ports.VoteService, questions ports.QuestionService, guard ports.VoteGuard, now func() time.Time) *VoteHandler {
	return &VoteHandler{
		votes:     votes,
		questions: questions,
		guard:     guard,
		now:       now,
	}
}

type voteRequest struct {
	Choice json.RawMessage `json:"choice"`
}

type voteResponse struct {
	QuestionID string         `json:"question_id"`
	Choice     *domain.Choice `json:"choice"`
}

type duplicateVoteResponse struct {
	QuestionID string                  `json:"question_id"`
	Duplicate  bool                    `json:"duplicate"`
	Results    *domain.QuestionResults `json:"results,omitempty"`
}

// voteErrorResponse re-presents the question with the reason the vote was
// not counted.
type voteErrorResponse struct {
	ErrorMessage string          `json:"error_message"`
	Question     *questionDetail `json:"question,omitempty"`
}

func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	choice, err := readChoice(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	claimed := false
	if h.guard != nil && key != "" {
		first, err := h.guard.Claim(r.Context(), id, key)
		switch {
		case err != nil:
			logger.C(r.Context()).Warn().Err(err).Msg("vote guard unavailable, counting vote")
		case !first:
			h.writeDuplicate(w, r, id.String())
			return
		default:
			claimed = true
		}
	}

	counted, err := h.votes.Vote(r.Context(), ports.VoteInput{QuestionID: id, ChoiceID: choice})
	if err != nil {
		if claimed {
			if rerr := h.guard.Release(r.Context(), id, key); rerr != nil {
				logger.C(r.Context()).Warn().Err(rerr).Msg("failed to release vote key")
			}
		}
		if errors.Is(err, domain.ErrNoSelectionMade) || errors.Is(err, domain.ErrChoiceNotFound) {
			h.writeVoteError(w, r, id.String(), err)
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{QuestionID: id.String(), Choice: counted})
}

func (h *VoteHandler) writeDuplicate(w http.ResponseWriter, r *http.Request, id string) {
	resp := duplicateVoteResponse{QuestionID: id, Duplicate: true}
	results, err := h.questions.Results(r.Context(), id, h.now())
	if err != nil && !errors.Is(err, domain.ErrQuestionNotFound) {
		writeError(w, r, err)
		return
	}
	resp.Results = results
	writeJSON(w, http.StatusOK, resp)
}

func (h *VoteHandler) writeVoteError(w http.ResponseWriter, r *http.Request, id string, voteErr error) {
	resp := voteErrorResponse{ErrorMessage: voteErr.Error()}

	now := h.now()
	if question, err := h.questions.GetPublished(r.Context(), id, now); err == nil {
		resp.Question = &questionDetail{Question: question, PublishedRecently: question.WasPublishedRecently(now)}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// readChoice extracts the submitted choice id from a JSON or form body. It
// returns nil when no choice was submitted at all.
func readChoice(w http.ResponseWriter, r *http.Request) (*string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req voteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			if errors.Is(err, errEmptyBody) {
				return nil, nil
			}
			return nil, err
		}
		raw := strings.TrimSpace(string(req.Choice))
		if raw == "" || raw == "null" {
			return nil, nil
		}
		var s string
		if err := json.Unmarshal(req.Choice, &s); err == nil {
			return &s, nil
		}
		return &raw, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, errors.New("failed to parse form")
	}
	if _, ok := r.PostForm["choice"]; !ok {
		return nil, nil
	}
	v := r.PostForm.Get("choice")
	return &v, nil
}
