package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups every HTTP handler the router serves.
type Handlers struct {
	Knowledge *KnowledgeHandler
	Question  *QuestionHandler
	Settings  *SettingsHandler
	Model     *ModelHandler
}

// NewRouter creates and configures a new chi router with all the application's routes.
// requestTimeout bounds every /api/v1 request; answering with a local model can be slow.
func NewRouter(h Handlers, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// --- Knowledgebase ---
		r.Post("/upload", h.Knowledge.HandleUpload)
		r.Get("/documents", h.Knowledge.HandleListDocuments)
		r.Delete("/documents/{documentID}", h.Knowledge.HandleDeleteDocument)

		// --- Questions ---
		r.Post("/questions", h.Question.HandleAsk)

		// --- Settings ---
		r.Get("/settings", h.Settings.GetSettings)
		r.Post("/settings", h.Settings.UpdateSettings)

		// --- Models ---
		r.Get("/models", h.Model.HandleListModels)
	})

	return r
}
