// Пакет contract — встроенный OpenAPI-контракт HTTP API Hash Verifier.
// Контракт загружается при старте и применяется middleware валидации
// запросов.
package contract

import _ "embed"

//go:embed openapi.yaml
var Spec []byte
