package http

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

func toHTTP(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
