package handler

import (
	"github.com/go-faster/errors"

	"github.com/xenking/kart-orders/internal/domain/auth"
)

// authenticate runs the gate over a raw Authorization header value. On
// failure it returns the 401 response to send instead.
func authenticate(gate *auth.Gate, header string) (auth.Identity, *Response) {
	id, err := gate.Authenticate(header)
	if err == nil {
		return id, nil
	}
	resp := unauthorized(err)
	return auth.Identity{}, &resp
}

// unauthorized collapses gate errors into the two public messages. Details
// of why a token was rejected are never returned to the caller.
func unauthorized(err error) Response {
	switch {
	case errors.Is(err, auth.ErrMissingBearer):
		return errorResponse(StatusUnauthorized, auth.ErrMissingBearer.Error())
	case auth.IsUnauthorized(err):
		return errorResponse(StatusUnauthorized, auth.ErrInvalidToken.Error())
	default:
		return internalError()
	}
}
