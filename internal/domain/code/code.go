// Пакет code — правила формирования и проверки кодов документов.
//
// Полный hash-код имеет форму PP-XXXXXXXXXXXX: двухбуквенный префикс
// типа документа, дефис и 12 алфавитно-цифровых символов тела.
// Короткий код — 6 символов, извлекаемых из чётных позиций тела.
// Сравнение кодов всегда без учёта регистра, каноническая форма
// хранения — верхний регистр.
package code

import (
	"regexp"
	"strings"
)

// hashPattern — форма полного hash-кода (без учёта регистра).
var hashPattern = regexp.MustCompile(`^[A-Za-z]{2}-[A-Za-z0-9]{12}$`)

// shortPattern — форма короткого кода: ровно 6 алфавитно-цифровых символов.
var shortPattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// DocumentType — описание типа документа из статической таблицы.
type DocumentType struct {
	// Code — внутренний код типа
	Code string `json:"code"`
	// Display — отображаемое название типа
	Display string `json:"display"`
}

// DocumentTypes — таблица типов документов по двухбуквенному префиксу
// hash-кода. Незарегистрированный префикс синтаксически допустим,
// но классифицируется как неизвестный тип.
var DocumentTypes = map[string]DocumentType{
	"CM": {Code: "carta_manifestacion", Display: "Carta de Manifestacion"},
	"IA": {Code: "informe_auditoria", Display: "Informe de Auditoria"},
	"CE": {Code: "carta_encargo", Display: "Carta de Encargo"},
	"IR": {Code: "informe_revision", Display: "Informe de Revision"},
	"OT": {Code: "otros", Display: "Otros Documentos"},
}

// Normalize приводит код к канонической форме: без краевых пробелов,
// в верхнем регистре.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateHashCode проверяет соответствие строки форме полного
// hash-кода PP-XXXXXXXXXXXX (без учёта регистра).
func ValidateHashCode(s string) bool {
	return hashPattern.MatchString(s)
}

// ValidateShortCode проверяет, что строка — ровно 6 алфавитно-цифровых
// символов.
func ValidateShortCode(s string) bool {
	return shortPattern.MatchString(s)
}

// IsShortCodeOnly возвращает true, если вход является коротким кодом и
// при этом не является полным hash-кодом. Формы взаимоисключающие уже
// по длине; предикат фиксирует правило разрешения неоднозначности явно
// на случай изменения форм.
func IsShortCodeOnly(s string) bool {
	return ValidateShortCode(s) && !ValidateHashCode(s)
}

// DeriveShortCode выводит короткий код из полного hash-кода: символы
// тела на позициях 0, 2, 4, 6, 8, 10. Для некорректного hash-кода
// возвращает пустую строку.
//
// Преобразование детерминированное и необратимое: разные hash-коды
// могут давать одинаковый короткий код, коллизии не отслеживаются и
// не предотвращаются.
func DeriveShortCode(hashCode string) string {
	if !ValidateHashCode(hashCode) {
		return ""
	}

	body := Normalize(hashCode)[3:]
	short := make([]byte, 0, 6)
	for i := 0; i < len(body); i += 2 {
		short = append(short, body[i])
	}
	return string(short)
}

// ClassifyType возвращает тип документа по двухбуквенному префиксу
// hash-кода. Второе значение false — префикс не зарегистрирован в
// таблице типов.
func ClassifyType(hashCode string) (DocumentType, bool) {
	if len(hashCode) < 2 {
		return DocumentType{}, false
	}
	t, ok := DocumentTypes[strings.ToUpper(hashCode[:2])]
	return t, ok
}
