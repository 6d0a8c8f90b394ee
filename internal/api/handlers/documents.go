// documents.go — обработчики регистрации документов и таблицы типов.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/hashverify/internal/api/errors"
	"github.com/bigkaa/hashverify/internal/domain/code"
	"github.com/bigkaa/hashverify/internal/service"
)

// registerRequest — тело запроса POST /api/v1/documents.
type registerRequest struct {
	HashCode            string         `json:"hash_code"`
	UserID              string         `json:"user_id"`
	ContentHash         string         `json:"content_hash,omitempty"`
	ClientName          string         `json:"client_name,omitempty"`
	DocumentType        string         `json:"document_type,omitempty"`
	DocumentTypeDisplay string         `json:"document_type_display,omitempty"`
	FileName            string         `json:"file_name,omitempty"`
	FileSize            int64          `json:"file_size,omitempty"`
	FormData            map[string]any `json:"form_data,omitempty"`
	Overwrite           bool           `json:"overwrite,omitempty"`
}

// registerResponse — тело ответа успешной регистрации.
type registerResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	HashCode  string `json:"hash_code"`
	ShortCode string `json:"short_code"`
	TraceID   string `json:"trace_id"`
}

// typesResponse — тело ответа GET /api/v1/document-types.
type typesResponse struct {
	Success bool                         `json:"success"`
	Types   map[string]code.DocumentType `json:"types"`
}

// DocumentsHandler — обработчики операций над документами реестра.
type DocumentsHandler struct {
	register *service.RegisterService
	logger   *slog.Logger
}

// NewDocumentsHandler создаёт обработчик регистрации документов.
func NewDocumentsHandler(register *service.RegisterService, logger *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		register: register,
		logger:   logger.With(slog.String("component", "documents_handler")),
	}
}

// Register обрабатывает POST /api/v1/documents.
// Регистрирует документ в реестре под его hash-кодом.
func (h *DocumentsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}

	result, regErr := h.register.Register(service.RegisterParams{
		HashCode:            req.HashCode,
		UserID:              req.UserID,
		ContentHash:         req.ContentHash,
		ClientName:          req.ClientName,
		DocumentType:        req.DocumentType,
		DocumentTypeDisplay: req.DocumentTypeDisplay,
		FileName:            req.FileName,
		FileSize:            req.FileSize,
		FormData:            req.FormData,
		Overwrite:           req.Overwrite,
	})
	if regErr != nil {
		apierrors.WriteError(w, regErr.StatusCode, regErr.Code, regErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success:   true,
		Message:   "Документ зарегистрирован в реестре",
		Path:      result.Path,
		HashCode:  result.HashCode,
		ShortCode: result.ShortCode,
		TraceID:   result.TraceID,
	})
}

// ListTypes обрабатывает GET /api/v1/document-types.
// Возвращает статическую таблицу типов по двухбуквенному префиксу.
func (h *DocumentsHandler) ListTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, typesResponse{
		Success: true,
		Types:   code.DocumentTypes,
	})
}

// writeJSON сериализует ответ с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
