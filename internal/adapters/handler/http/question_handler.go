package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type QuestionHandler struct {
	queries   ports.QueryService
	questions ports.QuestionService
	now       func() time.Time
}

func NewQuestionHandler(queries ports.QueryService, questions ports.QuestionService, now func() time.Time) *QuestionHandler {
	return &QuestionHandler{
		queries:   queries,
		questions: questions,
		now:       now,
	}
}

// listFilters echoes what was asked for next to what was applied. Start and
// End are null when the raw value was absent or not a date.
type listFilters struct {
	Show          string              `json:"show"`
	IncludeFuture bool                `json:"include_future"`
	Q             string              `json:"q"`
	StartRaw      string              `json:"start_raw"`
	EndRaw        string              `json:"end_raw"`
	Start         domain.OptionalDate `json:"start"`
	End           domain.OptionalDate `json:"end"`
	Order         domain.SortOrder    `json:"order"`
	Limit         int                 `json:"limit"`
}

type listResponse struct {
	Filters listFilters       `json:"filters"`
	Count   int               `json:"count"`
	Results []domain.Question `json:"results"`
}

type questionDetail struct {
	*domain.Question
	PublishedRecently bool `json:"published_recently"`
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	input := ports.ListQuestionsInput{
		Show:  q.Get("show"),
		Query: q.Get("q"),
		Start: q.Get("start"),
		End:   q.Get("end"),
		Order: q.Get("order"),
		Limit: limit,
	}

	page, err := h.queries.ListQuestions(r.Context(), input, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Filters: listFilters{
			Show:          input.Show,
			IncludeFuture: page.Filter.IncludeFuture,
			Q:             page.Filter.Search,
			StartRaw:      input.Start,
			EndRaw:        input.End,
			Start:         page.Filter.Start,
			End:           page.Filter.End,
			Order:         page.Filter.Order,
			Limit:         page.Filter.Limit,
		},
		Count:   page.Count,
		Results: page.Questions,
	})
}

func (h *QuestionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	question, err := h.questions.GetPublished(r.Context(), chi.URLParam(r, "id"), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionDetail{Question: question, PublishedRecently: question.WasPublishedRecently(now)})
}

func (h *QuestionHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.questions.Results(r.Context(), chi.URLParam(r, "id"), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input ports.CreateQuestionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	question, err := h.questions.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	var input ports.UpdateQuestionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.ID = id

	question, err := h.questions.Update(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	if err := h.questions.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuestionHandler) AddChoice(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	var input ports.AddChoiceInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.QuestionID = id

	choice, err := h.questions.AddChoice(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, choice)
}

// questionID parses the {id} URL parameter. An id that is not a UUID cannot
// name a question, so it is reported as not found.
func questionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, domain.ErrQuestionNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}
