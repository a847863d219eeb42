package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/webservice-umg/apiserver/internal/services"
	"github.com/webservice-umg/apiserver/internal/store"
	"github.com/webservice-umg/apiserver/types"
)

const (
	msgNotFound         = "No encontrado"
	msgEmailExists      = "El correo ya existe"
	msgEmailUsedByOther = "El correo ya está usado por otro usuario"
	msgInvalidUserID    = "invalid user id"
	userIDParam         = "userID"
)

// UserHandler provides HTTP handlers for users.
type UserHandler struct {
	users    *services.UserService
	validate *validator.Validate
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{
		users:    users,
		validate: newValidator(),
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users *services.UserService) {
	handler := NewUserHandler(users)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{"+userIDParam+"}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Put("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, fieldErrors(err))
		return
	}

	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeError(w, http.StatusConflict, msgEmailExists)
			return
		}
		internalError(w, r, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		internalError(w, r, err, "failed to list users")
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, map[string]string{"id_usuario": msgInvalidUserID})
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		internalError(w, r, err, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, map[string]string{"id_usuario": msgInvalidUserID})
		return
	}

	var req types.UpdateUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, fieldErrors(err))
		return
	}

	user, err := h.users.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusConflict, msgEmailUsedByOther)
		default:
			internalError(w, r, err, "failed to update user")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, map[string]string{"id_usuario": msgInvalidUserID})
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		internalError(w, r, err, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseUserID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, userIDParam))
}

func internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	writeError(w, http.StatusInternalServerError, message)
}
