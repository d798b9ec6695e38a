// Package handler exposes the order and user services over HTTP.
//
// Each endpoint is a pure function of already-extracted request values
// (authorization header, body bytes, path parameters) returning a Response.
// The http.Handler adapters in this package only extract those values and
// write the Response.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Status is the outcome category of a request, independent of the
// transport.
type Status int

// Status categories.
const (
	StatusOK Status = iota
	StatusCreated
	StatusBadRequest
	StatusUnauthorized
	StatusNotFound
	StatusConflict
	StatusInternal
)

// Code maps s onto an HTTP status code.
func (s Status) Code() int {
	switch s {
	case StatusOK:
		return http.StatusOK
	case StatusCreated:
		return http.StatusCreated
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCreated:
		return "created"
	case StatusBadRequest:
		return "bad_request"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusNotFound:
		return "not_found"
	case StatusConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Response is the result of a handler function.
type Response struct {
	Status Status
	body   func(e *jx.Encoder)
}

// Body returns the JSON encoding of the response body.
func (r Response) Body() []byte {
	var e jx.Encoder
	if r.body == nil {
		e.ObjEmpty()
	} else {
		r.body(&e)
	}
	return e.Bytes()
}

func respond(status Status, body func(e *jx.Encoder)) Response {
	return Response{Status: status, body: body}
}

func errorResponse(status Status, msg string) Response {
	return respond(status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func internalError() Response {
	return errorResponse(StatusInternal, "internal error")
}

// writeResponse writes resp as a JSON HTTP response.
func writeResponse(w http.ResponseWriter, r *http.Request, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status.Code())
	if _, err := w.Write(resp.Body()); err != nil {
		zctx.From(r.Context()).Debug("Write response", zap.Error(err))
	}
}
