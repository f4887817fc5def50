package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "kbase/internal/errors"
	"kbase/internal/interfaces"
	"kbase/internal/model"
)

// UploadFormField is the multipart field that carries the files of an upload.
const UploadFormField = "files"

// Multipart parts above this size are spooled to temporary files instead of memory.
const multipartMemory = 8 << 20

// UploadLimits bounds the size of upload requests.
type UploadLimits struct {
	MaxUploadSize int64 // whole request body
	MaxFileSize   int64 // a single file
}

// KnowledgeHandler handles HTTP requests that add and manage knowledgebase files.
type KnowledgeHandler struct {
	service interfaces.KnowledgeService
	limits  UploadLimits
}

func NewKnowledgeHandler(svc interfaces.KnowledgeService, limits UploadLimits) *KnowledgeHandler {
	return &KnowledgeHandler{service: svc, limits: limits}
}

// HandleUpload godoc
// @Summary      Upload files
// @Description  Adds a batch of text files to the knowledgebase. Each file is reported as uploaded or, with a reason, as failed.
// @Tags         Knowledge
// @Accept       multipart/form-data
// @Produce      json
// @Param        files  formData  file  true  "Files to add"
// @Success      200    {object}  model.UploadResult
// @Failure      400    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /v1/upload [post]
func (h *KnowledgeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, fmt.Errorf("%w: upload exceeds %d bytes", app_errors.ErrValidation, tooLarge.Limit))
			return
		}
		respondWithError(w, fmt.Errorf("%w: invalid multipart form: %s", app_errors.ErrValidation, err.Error()))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Failed to remove multipart temp files", "error", err)
		}
	}()

	headers := r.MultipartForm.File[UploadFormField]
	files := make([]model.FileUpload, 0, len(headers))
	for _, fh := range headers {
		content, err := h.readPart(fh)
		if err != nil {
			respondWithError(w, fmt.Errorf("could not read uploaded file %q: %w", fh.Filename, err))
			return
		}
		files = append(files, model.FileUpload{Name: fh.Filename, Content: content})
	}

	result, err := h.service.Upload(r.Context(), files)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// readPart reads at most one byte past the per-file limit, which is enough for the
// service to reject the file as too large without buffering all of it.
func (h *KnowledgeHandler) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, h.limits.MaxFileSize+1))
}

// HandleListDocuments godoc
// @Summary      List documents
// @Description  Gets every document in the knowledgebase, newest first.
// @Tags         Knowledge
// @Produce      json
// @Success      200  {array}   model.Document
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/documents [get]
func (h *KnowledgeHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	respondWithJSON(w, http.StatusOK, docs)
}

// HandleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes a document and all of its chunks.
// @Tags         Knowledge
// @Produce      json
// @Param        documentID  path      string  true  "Document ID"
// @Success      200         {object}  StatusResponse
// @Failure      404         {object}  ErrorResponse
// @Failure      500         {object}  ErrorResponse
// @Router       /v1/documents/{documentID} [delete]
func (h *KnowledgeHandler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if err := h.service.DeleteDocument(r.Context(), documentID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
