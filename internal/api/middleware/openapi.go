// openapi.go — middleware валидации входящих запросов по OpenAPI-контракту.
// Контракт встроен в бинарник; запросы, не соответствующие контракту,
// отклоняются до передачи в handlers. Пути вне контракта (health,
// metrics) проходят без проверки.
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/bigkaa/hashverify/internal/api/errors"
)

// NewOpenAPIValidator загружает и валидирует встроенный контракт и
// возвращает middleware валидации запросов.
func NewOpenAPIValidator(specData []byte) (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(specData)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки OpenAPI-контракта: %w", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("некорректный OpenAPI-контракт: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("ошибка построения роутера контракта: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, findErr := router.FindRoute(r)
			if findErr != nil {
				// Путь вне контракта — без валидации
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}

			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				apierrors.ValidationError(w, err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
