package handler

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/domain/auth"
	"github.com/xenking/kart-orders/internal/domain/user"
)

// UserServiceName is reported by the user service health endpoint.
const UserServiceName = "user-service"

// UserHandler serves registration, login and profile lookup.
type UserHandler struct {
	gate  *auth.Gate
	users *user.Service
	env   string
}

// NewUserHandler constructs a UserHandler. env is echoed by the health and
// env endpoints.
func NewUserHandler(gate *auth.Gate, users *user.Service, env string) *UserHandler {
	return &UserHandler{
		gate:  gate,
		users: users,
		env:   env,
	}
}

type credentials struct {
	Username string
	Password string
	Name     string
	Email    string
}

// Register creates an account from {"username","password","name","email"}.
func (h *UserHandler) Register(ctx context.Context, body []byte) Response {
	c, err := decodeCredentials(body)
	if err != nil {
		return errorResponse(StatusBadRequest, errInvalidBody.Error())
	}

	u, err := h.users.Register(ctx, user.RegisterRequest{
		Username: c.Username,
		Password: c.Password,
		Name:     c.Name,
		Email:    c.Email,
	})
	if err != nil {
		return mapUserError(ctx, err)
	}

	zctx.From(ctx).Info("User registered", zap.String("user_id", u.ID))
	return respond(StatusCreated, func(e *jx.Encoder) { encodeUser(e, u) })
}

// Login exchanges a username and password for a bearer token.
func (h *UserHandler) Login(ctx context.Context, body []byte) Response {
	c, err := decodeCredentials(body)
	if err != nil {
		return errorResponse(StatusBadRequest, errInvalidBody.Error())
	}

	token, err := h.users.Login(ctx, c.Username, c.Password)
	if err != nil {
		return mapUserError(ctx, err)
	}
	return respond(StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("token", func(e *jx.Encoder) { e.Str(token) })
		})
	})
}

// Profile returns the public view of the authenticated user.
func (h *UserHandler) Profile(ctx context.Context, authorization string) Response {
	id, deny := authenticate(h.gate, authorization)
	if deny != nil {
		return *deny
	}

	u, err := h.users.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errorResponse(StatusUnauthorized, auth.ErrInvalidToken.Error())
		}
		return mapUserError(ctx, err)
	}
	return respond(StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
}

// Health reports the service name and deployment environment.
func (h *UserHandler) Health() Response {
	return healthResponse(UserServiceName, h.env)
}

// Env reports the deployment environment.
func (h *UserHandler) Env() Response {
	return respond(StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("env", func(e *jx.Encoder) { e.Str(h.env) })
		})
	})
}

// Routes mounts the user service routes on mux.
func (h *UserHandler) Routes(mux *http.ServeMux) {
	withBody := func(fn func(ctx context.Context, body []byte) Response) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body, err := readBody(w, r)
			if err != nil {
				writeResponse(w, r, errorResponse(StatusBadRequest, errInvalidBody.Error()))
				return
			}
			writeResponse(w, r, fn(r.Context(), body))
		}
	}

	mux.HandleFunc("POST /register", withBody(h.Register))
	mux.HandleFunc("POST /login", withBody(h.Login))
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.Profile(r.Context(), r.Header.Get("Authorization")))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.Health())
	})
	mux.HandleFunc("GET /env", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, r, h.Env())
	})
}

// mapUserError converts domain errors to responses.
func mapUserError(ctx context.Context, err error) Response {
	switch {
	case errors.Is(err, user.ErrCredentialsRequired):
		return errorResponse(StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrUsernameTaken):
		return errorResponse(StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		return errorResponse(StatusUnauthorized, err.Error())
	}

	zctx.From(ctx).Error("User request failed", zap.Error(err))
	return internalError()
}

// decodeCredentials parses a flat object of string fields. Unknown keys and
// null values are ignored.
func decodeCredentials(body []byte) (credentials, error) {
	var c credentials
	if len(bytes.TrimSpace(body)) == 0 {
		return c, nil
	}

	d := jx.DecodeBytes(body)
	if d.Next() == jx.Null {
		return c, d.Null()
	}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "username":
			dst = &c.Username
		case "password":
			dst = &c.Password
		case "name":
			dst = &c.Name
		case "email":
			dst = &c.Email
		default:
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		v, err := d.Str()
		if err != nil {
			return errors.Wrap(err, key)
		}
		*dst = v
		return nil
	})
	if err != nil {
		return credentials{}, errors.Wrap(err, "decode credentials")
	}
	return c, nil
}

func encodeUser(e *jx.Encoder, u *user.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(u.ID) })
		e.Field("username", func(e *jx.Encoder) { e.Str(u.Username) })
		e.Field("name", func(e *jx.Encoder) { e.Str(u.Name) })
		e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
	})
}
