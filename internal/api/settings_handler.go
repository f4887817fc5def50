package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	app_errors "kbase/internal/errors"
	"kbase/internal/interfaces"
	"kbase/internal/service"
)

// SettingsHandler exposes the server-side settings. The stored API key is write-only.
type SettingsHandler struct {
	service interfaces.SettingsService
}

func NewSettingsHandler(svc interfaces.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// GetSettings godoc
// @Summary      Get settings
// @Description  Retrieves the current server settings. The stored API key is reported only as api_key_set.
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  service.Settings
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/settings [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary      Update settings
// @Description  Applies a partial update; omitted fields keep their value.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settingsUpdate  body      service.SettingsUpdate  true  "Settings to change"
// @Success      200             {object}  service.Settings
// @Failure      400             {object}  ErrorResponse
// @Failure      500             {object}  ErrorResponse
// @Router       /v1/settings [post]
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update service.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(&update); err != nil {
		respondWithError(w, err)
		return
	}

	settings, err := h.service.Save(r.Context(), &update)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}
