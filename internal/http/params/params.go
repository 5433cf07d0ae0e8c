// Package params разбирает параметры пути и строки запроса.
package params

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

// ErrInvalid параметр запроса имеет неверный формат.
var ErrInvalid = errors.New("invalid parameter")

// ID возвращает параметр пути name, если это корректный UUID.
func ID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalid
	}
	return id.String(), nil
}

// Int возвращает целочисленный параметр строки запроса или def, если он не задан.
func Int(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalid
	}
	return n, nil
}
