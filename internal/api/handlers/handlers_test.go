package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/hashverify/internal/service"
	"github.com/bigkaa/hashverify/internal/storage/registry"
)

// newTestRouter собирает полный роутер API поверх реестра во временной
// директории.
func newTestRouter(t *testing.T) (http.Handler, *registry.Registry) {
	t.Helper()
	logger := slog.Default()

	reg, err := registry.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("registry.New ошибка: %v", err)
	}

	registerSvc := service.NewRegisterService(reg, logger)
	lookupSvc := service.NewLookupService(reg, logger)
	statsSvc := service.NewStatsService(reg, logger)
	integritySvc := service.NewIntegrityService(lookupSvc, logger)

	api := NewAPIHandler(
		NewDocumentsHandler(registerSvc, logger),
		NewVerifyHandler(lookupSvc, integritySvc, 1<<20, logger),
		NewSearchHandler(lookupSvc, 10, logger),
		NewStatsHandler(statsSvc, logger),
		NewHealthHandler(reg.DataDir()),
	)

	router := chi.NewRouter()
	api.Routes(router)
	return router, reg
}

// registerDocument выполняет POST /api/v1/documents и проверяет статус 201.
func registerDocument(t *testing.T, router http.Handler, body map[string]any) map[string]any {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("статус = %d, ожидался 201, тело: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal ответа ошибка: %v", err)
	}
	return resp
}

// TestRegisterEndpoint проверяет регистрацию документа через HTTP API.
func TestRegisterEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := registerDocument(t, router, map[string]any{
		"hash_code":   "cm-a1b2c3d4e5f6",
		"user_id":     "billing-app",
		"client_name": "Billing",
		"form_data":   map[string]any{"campo": "valor"},
	})

	if resp["success"] != true {
		t.Error("success != true")
	}
	if resp["hash_code"] != "CM-A1B2C3D4E5F6" {
		t.Errorf("hash_code = %v, ожидался CM-A1B2C3D4E5F6", resp["hash_code"])
	}
	if resp["short_code"] != "ABCDEF" {
		t.Errorf("short_code = %v, ожидался ABCDEF", resp["short_code"])
	}
	if resp["trace_id"] == "" {
		t.Error("trace_id пуст")
	}
}

// TestRegisterEndpoint_Errors проверяет коды ошибок регистрации.
func TestRegisterEndpoint_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	// Некорректный hash-код
	data, _ := json.Marshal(map[string]any{"hash_code": "не-код", "user_id": "app"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус = %d, ожидался 400", rr.Code)
	}
	var errResp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("Unmarshal ошибки: %v", err)
	}
	if errResp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error.code = %q, ожидался VALIDATION_ERROR", errResp.Error.Code)
	}

	// Дубликат
	registerDocument(t, router, map[string]any{"hash_code": "CM-A1B2C3D4E5F6", "user_id": "app"})
	data, _ = json.Marshal(map[string]any{"hash_code": "CM-A1B2C3D4E5F6", "user_id": "app"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Errorf("статус дубликата = %d, ожидался 409", rr.Code)
	}

	// Невалидный JSON
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("{не json"))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус невалидного JSON = %d, ожидался 400", rr.Code)
	}
}

// TestVerifyCodeEndpoint проверяет поиск по полному и короткому коду.
func TestVerifyCodeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	registerDocument(t, router, map[string]any{"hash_code": "CM-A1B2C3D4E5F6", "user_id": "app"})

	for _, codeStr := range []string{"CM-A1B2C3D4E5F6", "cm-a1b2c3d4e5f6", "ABCDEF", "abcdef"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/verify/"+codeStr, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("verify(%s) статус = %d, ожидался 200, тело: %s", codeStr, rr.Code, rr.Body.String())
			continue
		}

		var resp struct {
			Success  bool   `json:"success"`
			CodeKind string `json:"code_kind"`
			Metadata struct {
				HashInfo struct {
					HashCode string `json:"hash_code"`
				} `json:"hash_info"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Unmarshal ответа ошибка: %v", err)
		}
		if resp.Metadata.HashInfo.HashCode != "CM-A1B2C3D4E5F6" {
			t.Errorf("verify(%s) metadata.hash_code = %q", codeStr, resp.Metadata.HashInfo.HashCode)
		}
	}

	// Не найдено
	req := httptest.NewRequest(http.MethodGet, "/api/v1/verify/ZZ-000000000000", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("статус = %d, ожидался 404", rr.Code)
	}

	// Некорректная форма кода
	req = httptest.NewRequest(http.MethodGet, "/api/v1/verify/abc", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус = %d, ожидался 400", rr.Code)
	}
}

// multipartBody собирает multipart-тело с одним файлом.
func multipartBody(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "doc.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile ошибка: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("Write ошибка: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close ошибка: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// TestVerifyIntegrityEndpoint проверяет проверку целостности через HTTP API.
func TestVerifyIntegrityEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	content := []byte("содержимое документа")
	sum := sha256.Sum256(content)
	registerDocument(t, router, map[string]any{
		"hash_code":    "CM-A1B2C3D4E5F6",
		"user_id":      "app",
		"content_hash": hex.EncodeToString(sum[:]),
	})

	// Неизменённое содержимое
	body, contentType := multipartBody(t, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/integrity?hash_code=CM-A1B2C3D4E5F6", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200, тело: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Unmarshal ошибка: %v", err)
	}
	if !result.Valid {
		t.Error("valid = false для неизменённого содержимого")
	}

	// Изменённое содержимое — тоже 200, но valid=false
	body, contentType = multipartBody(t, []byte("подделка"))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/verify/integrity?hash_code=CM-A1B2C3D4E5F6", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Unmarshal ошибка: %v", err)
	}
	if result.Valid {
		t.Error("valid = true для изменённого содержимого")
	}

	// Без hash_code
	body, contentType = multipartBody(t, content)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/verify/integrity", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус без hash_code = %d, ожидался 400", rr.Code)
	}

	// Пустой файл
	body, contentType = multipartBody(t, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/verify/integrity?hash_code=CM-A1B2C3D4E5F6", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус пустого файла = %d, ожидался 400", rr.Code)
	}
}

// TestSearchEndpoint проверяет частичный поиск через HTTP API.
func TestSearchEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	registerDocument(t, router, map[string]any{"hash_code": "CM-A1B2C3D4E5F6", "user_id": "app"})
	registerDocument(t, router, map[string]any{"hash_code": "IA-A1B2C3D4E5F7", "user_id": "app"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=a1b2", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200, тело: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success bool             `json:"success"`
		Query   string           `json:"query"`
		Count   int              `json:"count"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal ошибка: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Errorf("count = %d, results = %d, ожидалось 2", resp.Count, len(resp.Results))
	}

	// Лимит
	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=a1b2&limit=1", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal ошибка: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, ожидался 1 (limit)", resp.Count)
	}

	// Слишком короткая подстрока
	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=ab", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус короткой подстроки = %d, ожидался 400", rr.Code)
	}

	// Лимит вне диапазона
	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=a1b2&limit=500", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус limit=500 = %d, ожидался 400", rr.Code)
	}
}

// TestStatsEndpoint проверяет статистику через HTTP API.
func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	registerDocument(t, router, map[string]any{"hash_code": "CM-A1B2C3D4E5F6", "user_id": "app-one"})
	registerDocument(t, router, map[string]any{"hash_code": "IA-111122223333", "user_id": "app-two"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", rr.Code)
	}
	var stats struct {
		TotalDocuments  int              `json:"total_documents"`
		ByType          map[string]int   `json:"by_type"`
		ByUser          map[string]int   `json:"by_user"`
		RecentDocuments []map[string]any `json:"recent_documents"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Unmarshal ошибка: %v", err)
	}
	if stats.TotalDocuments != 2 {
		t.Errorf("total_documents = %d, ожидалось 2", stats.TotalDocuments)
	}
	if stats.ByUser["app-one"] != 1 {
		t.Errorf("by_user[app-one] = %d, ожидался 1", stats.ByUser["app-one"])
	}
	if len(stats.RecentDocuments) != 2 {
		t.Errorf("recent_documents = %d, ожидалось 2", len(stats.RecentDocuments))
	}
}

// TestDocumentTypesEndpoint проверяет таблицу типов документов.
func TestDocumentTypesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/document-types", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидался 200", rr.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Types   map[string]struct {
			Code    string `json:"code"`
			Display string `json:"display"`
		} `json:"types"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal ошибка: %v", err)
	}
	if len(resp.Types) != 5 {
		t.Errorf("типов = %d, ожидалось 5", len(resp.Types))
	}
	if resp.Types["CM"].Display != "Carta de Manifestacion" {
		t.Errorf("CM display = %q", resp.Types["CM"].Display)
	}
}

// TestHealthEndpoints проверяет health endpoints.
func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s статус = %d, ожидался 200", path, rr.Code)
			continue
		}
		var resp map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Unmarshal ошибка: %v", err)
		}
		if resp["status"] != "ok" {
			t.Errorf("%s status = %v, ожидался ok", path, resp["status"])
		}
		if resp["service"] != "hash-verifier" {
			t.Errorf("%s service = %v, ожидался hash-verifier", path, resp["service"])
		}
	}
}
