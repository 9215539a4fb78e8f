package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/config"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/repository"
)

// UserAdminHandler implements the admin user management endpoints.
// It needs the request store as well: a worker cannot be deleted while
// requests are still assigned to them.
type UserAdminHandler struct {
	Cfg      config.Config
	Users    UserStore
	Requests RequestStore
}

func NewUserAdminHandler(cfg config.Config, users UserStore, requests RequestStore) *UserAdminHandler {
	if users == nil || requests == nil {
		panic("nil store passed to NewUserAdminHandler")
	}
	return &UserAdminHandler{Cfg: cfg, Users: users, Requests: requests}
}

type adminUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func validRole(role string) bool {
	switch role {
	case lifecycle.RoleAdmin, lifecycle.RoleWorker, lifecycle.RoleCitizen:
		return true
	}
	return false
}

// List handles GET /v1/admin/users.
func (h *UserAdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/admin/users. Unlike self-registration, an
// admin may provision any role, which is how worker and admin
// accounts come to exist.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var body adminUserReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Role = strings.ToUpper(strings.TrimSpace(body.Role))
	if body.Name == "" || body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if !validRole(body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role", "field": "role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, body.Name, body.Email, body.Password, body.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, userPart{ID: uid, Name: body.Name, Email: body.Email, Role: body.Role})
}

// Update handles PUT /v1/admin/users/:id.
func (h *UserAdminHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var body adminUserReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Role = strings.ToUpper(strings.TrimSpace(body.Role))
	if body.Name == "" || body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}
	if !validRole(body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role", "field": "role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Update(ctx, id, body.Name, body.Email, body.Role); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
		}
	}
	return c.JSON(http.StatusOK, userPart{ID: id, Name: body.Name, Email: body.Email, Role: body.Role})
}

// Delete handles DELETE /v1/admin/users/:id. Deleting a worker who
// still has non-terminal assignments would strand those requests, so
// the delete is refused with 409 until they are reassigned or
// finished.
func (h *UserAdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if u.Role == lifecycle.RoleWorker {
		active, err := h.Requests.CountActiveByWorker(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if active > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":              "worker has active assignments",
				"active_assignments": active,
			})
		}
	}

	if err := h.Users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "user is referenced by existing requests"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
