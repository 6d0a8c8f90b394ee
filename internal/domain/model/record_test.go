package model

import (
	"encoding/json"
	"testing"
)

// TestSanitizeUserID проверяет санитизацию идентификатора пользователя.
func TestSanitizeUserID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"простой идентификатор", "billing-app", "billing-app"},
		{"пробел и спецсимвол", "My App!", "My_App_"},
		{"краевые пробелы", "  svc  ", "svc"},
		{"точки и слэши", "a.b/c", "a_b_c"},
		{"кириллица заменяется", "сервис1", "______1"},
		{"пустая строка", "", ""},
		{"только пробелы", "   ", ""},
		{"подчёркивания сохраняются", "app_v2", "app_v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUserID(tt.input); got != tt.want {
				t.Errorf("SanitizeUserID(%q) = %q, ожидался %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestRecord_JSONRoundTrip проверяет соответствие JSON-тегов формату
// metadata-файла.
func TestRecord_JSONRoundTrip(t *testing.T) {
	rec := Record{
		Version: SchemaVersion,
		TraceID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		HashInfo: HashInfo{
			HashCode:    "CM-A1B2C3D4E5F6",
			ShortCode:   "ABCDEF",
			Algorithm:   DefaultAlgorithm,
			ContentHash: "deadbeef",
			FileSize:    1024,
		},
		DocumentInfo: DocumentInfo{
			Type:                 "carta_manifestacion",
			TypeDisplay:          "Carta de Manifestacion",
			FileName:             "doc.pdf",
			CreationTimestamp:    "28/08/2026 12:00:00",
			CreationTimestampISO: "2026-08-28T10:00:00Z",
		},
		UserInfo: UserInfo{
			UserID:     "billing-app",
			ClientName: "Billing",
		},
		FormData: map[string]any{"campo": "valor"},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal ошибка: %v", err)
	}

	// Ключевые поля wire-формата
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal в map ошибка: %v", err)
	}
	for _, key := range []string{"version", "trace_id", "hash_info", "document_info", "user_info", "form_data"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("в JSON отсутствует ключ %q", key)
		}
	}
	hashInfo, ok := raw["hash_info"].(map[string]any)
	if !ok {
		t.Fatal("hash_info не является объектом")
	}
	if hashInfo["hash_code"] != "CM-A1B2C3D4E5F6" {
		t.Errorf("hash_info.hash_code = %v, ожидался CM-A1B2C3D4E5F6", hashInfo["hash_code"])
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal в Record ошибка: %v", err)
	}
	if back.HashInfo.ShortCode != "ABCDEF" {
		t.Errorf("ShortCode = %q, ожидался ABCDEF", back.HashInfo.ShortCode)
	}
	if back.FormData["campo"] != "valor" {
		t.Errorf("FormData[campo] = %v, ожидался valor", back.FormData["campo"])
	}
}
