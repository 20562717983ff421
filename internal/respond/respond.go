// Package respond holds the error payloads shared by the HTTP handlers.
package respond

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ayush/conduit/backend/internal/logging"
	"github.com/ayush/conduit/backend/internal/store"
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	ErrorText string `json:"error"` // user-level message
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, ErrorText: err.Error()}
}

func ErrUnauthorized(msg string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusUnauthorized, ErrorText: msg}
}

func ErrConflict(msg string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusConflict, ErrorText: msg}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, ErrorText: "not found"}

// Error writes rd. A failure to render is only logged; the status line is
// already gone by then.
func Error(w http.ResponseWriter, r *http.Request, rd render.Renderer) {
	if err := render.Render(w, r, rd); err != nil {
		logging.FromContext(r.Context()).Errorw("render error response", "error", err)
	}
}

// Internal logs err with the request logger and writes a generic 500 body.
func Internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.FromContext(r.Context()).Errorw(msg, "error", err)
	Error(w, r, &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		ErrorText:      "internal server error",
	})
}

// Store maps the store sentinels to 404 and 409 and everything else to 500.
func Store(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(w, r, ErrNotFound)
	case errors.Is(err, store.ErrConflict):
		Error(w, r, ErrConflict("already exists"))
	default:
		Internal(w, r, msg, err)
	}
}

// OK renders v, logging a render failure.
func OK(w http.ResponseWriter, r *http.Request, status int, v render.Renderer) {
	render.Status(r, status)
	if err := render.Render(w, r, v); err != nil {
		logging.FromContext(r.Context()).Errorw("render response", "error", err)
	}
}
