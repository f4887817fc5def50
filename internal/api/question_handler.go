package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	app_errors "kbase/internal/errors"
	"kbase/internal/interfaces"
	"kbase/internal/model"
)

// QuestionHandler handles questions asked against the knowledgebase.
type QuestionHandler struct {
	service interfaces.QuestionService
}

func NewQuestionHandler(svc interfaces.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: svc}
}

// HandleAsk godoc
// @Summary      Ask a question
// @Description  Answers a question from the knowledgebase. A key in the X-OpenAI-Key header is used for hosted models and is never stored.
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        X-OpenAI-Key     header    string                 false  "OpenAI API key"
// @Param        questionRequest  body      model.QuestionRequest  true   "Question"
// @Success      200              {object}  model.Answer
// @Failure      400              {object}  ErrorResponse
// @Failure      403              {object}  ErrorResponse
// @Failure      502              {object}  ErrorResponse
// @Router       /v1/questions [post]
func (h *QuestionHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req model.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	req.Model = strings.TrimSpace(req.Model)
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}

	apiKey := strings.TrimSpace(r.Header.Get(model.APIKeyHeader))
	answer, err := h.service.Ask(r.Context(), &req, apiKey)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if answer.Context == nil {
		answer.Context = []model.ContextSnippet{}
	}
	respondWithJSON(w, http.StatusOK, answer)
}
