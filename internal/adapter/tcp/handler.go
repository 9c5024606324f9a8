package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tcp-user-service/internal/usecase/user"
	"tcp-user-service/internal/wire"
	pkgerrors "tcp-user-service/pkg/errors"
	"tcp-user-service/pkg/logger"
)

// UserHandler turns decoded requests into usecase calls and collapses
// their errors into the fixed wire responses.
type UserHandler struct {
	uc       user.Usecase
	log      *zap.Logger
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &UserHandler{
		uc:       uc,
		log:      log,
		validate: v,
	}
}

// userBody is the JSON body of create and update requests. Pointers tell a
// missing or null field apart from an empty string.
type userBody struct {
	ID    *int32  `json:"id"`
	Name  *string `json:"name" validate:"required"`
	Email *string `json:"email" validate:"required"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(ctx context.Context, req *wire.Request) wire.Response {
	body, err := h.parseUserBody(req)
	if err != nil {
		return h.handleError(ctx, "create", err)
	}

	if _, err := h.uc.CreateUser(ctx, user.CreateUserRequest{
		Name:  *body.Name,
		Email: *body.Email,
	}); err != nil {
		return h.handleError(ctx, "create", err)
	}

	return wire.OK("User created")
}

// UpdateUser handles PUT /users/<id>
func (h *UserHandler) UpdateUser(ctx context.Context, req *wire.Request) wire.Response {
	id, err := parseID(req)
	if err != nil {
		return h.handleError(ctx, "update", err)
	}

	body, err := h.parseUserBody(req)
	if err != nil {
		return h.handleError(ctx, "update", err)
	}

	if _, err := h.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:    id,
		Name:  *body.Name,
		Email: *body.Email,
	}); err != nil {
		return h.handleError(ctx, "update", err)
	}

	return wire.OK("User updated")
}

// DeleteUser handles DELETE /users/<id>
func (h *UserHandler) DeleteUser(ctx context.Context, req *wire.Request) wire.Response {
	id, err := parseID(req)
	if err != nil {
		return h.handleError(ctx, "delete", err)
	}

	if _, err := h.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: id}); err != nil {
		return h.handleError(ctx, "delete", err)
	}

	return wire.OK("User deleted")
}

// parseID reads the path id as a signed 32-bit integer, the width of the
// users.id column.
func parseID(req *wire.Request) (int64, error) {
	raw := req.PathID()
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, pkgerrors.NewInvalidIDError(raw, err)
	}
	return id, nil
}

func (h *UserHandler) parseUserBody(req *wire.Request) (*userBody, error) {
	body, err := decodeUserBody(req.Body)
	if err != nil {
		return nil, err
	}

	if err := h.validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, pkgerrors.NewMalformedBodyError(verrs[0].Field(), nil)
		}
		return nil, pkgerrors.NewMalformedBodyError("", err)
	}

	return body, nil
}

// decodeUserBody reads a single JSON object. Keys match exactly, so "NAME"
// is not "name", and a known key given twice is rejected. Unknown keys are
// skipped.
func decodeUserBody(text string) (*userBody, error) {
	dec := json.NewDecoder(strings.NewReader(text))

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, pkgerrors.NewMalformedBodyError("", errors.New("body is not a JSON object"))
	}

	var body userBody
	seen := make(map[string]bool, 3)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, pkgerrors.NewMalformedBodyError("", err)
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, pkgerrors.NewMalformedBodyError(key, err)
		}

		var dst any
		switch key {
		case "id":
			dst = &body.ID
		case "name":
			dst = &body.Name
		case "email":
			dst = &body.Email
		default:
			continue
		}
		if seen[key] {
			return nil, pkgerrors.NewMalformedBodyError(key, errors.New("duplicate field"))
		}
		seen[key] = true

		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, pkgerrors.NewMalformedBodyError(key, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, pkgerrors.NewMalformedBodyError("", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, pkgerrors.NewMalformedBodyError("", errors.New("trailing data after JSON object"))
	}

	return &body, nil
}

// handleError converts any error into a wire response. Only not-found is
// distinguished; everything else is a bare 500.
func (h *UserHandler) handleError(ctx context.Context, op string, err error) wire.Response {
	log := logger.WithContext(ctx, h.log)

	var sc pkgerrors.StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound {
		return wire.NotFound("User not found")
	}

	var (
		bodyErr *pkgerrors.MalformedBodyError
		idErr   *pkgerrors.InvalidIDError
	)
	if errors.As(err, &bodyErr) || errors.As(err, &idErr) {
		log.Warn("rejected request", zap.String("op", op), zap.Error(err))
	} else {
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	}

	return wire.InternalError()
}
