package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/adminpulse/internal/api"
	"github.com/pscheid92/adminpulse/internal/domain"
	apperrors "github.com/pscheid92/adminpulse/internal/platform/errors"
)

const usersPageSize = 20

func (s *Server) handleUserList(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	list, err := s.users.List(c.Request().Context(), (page-1)*usersPageSize, usersPageSize)
	if err != nil {
		return apperrors.UpstreamError("failed to load users", err)
	}

	totalPages := (list.Total + usersPageSize - 1) / usersPageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return s.renderTemplate(c, "users.html", map[string]any{
		"Users":      list.Users,
		"Total":      list.Total,
		"Page":       page,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
		"TotalPages": totalPages,
		"Flashes":    s.popFlashes(c),
	})
}

func (s *Server) handleUserDetail(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	user, err := s.users.Get(c.Request().Context(), id)
	if err != nil {
		return userError("failed to load user", err)
	}

	return s.renderTemplate(c, "user_detail.html", map[string]any{
		"Profile": user,
		"Flashes": s.popFlashes(c),
	})
}

func (s *Server) handleUserNew(c echo.Context) error {
	return s.renderTemplate(c, "user_form.html", map[string]any{
		"Title":  "Create user",
		"Action": "/users",
		"Roles":  []domain.Role{domain.RoleUser, domain.RoleAdmin},
	})
}

func (s *Server) handleUserCreate(c echo.Context) error {
	input := api.UserCreate{
		Name:     strings.TrimSpace(c.FormValue("name")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
		Role:     domain.Role(c.FormValue("role")),
	}
	if err := validateUserForm(input.Name, input.Email, input.Role); err != nil {
		return err
	}
	if input.Password == "" {
		return apperrors.ValidationError("password is required")
	}

	user, err := s.users.Create(c.Request().Context(), input)
	if err != nil {
		return userError("failed to create user", err)
	}

	s.addFlash(c, fmt.Sprintf("User %s created", user.Name))
	return redirect(c, "/users")
}

func (s *Server) handleUserEdit(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	user, err := s.users.Get(c.Request().Context(), id)
	if err != nil {
		return userError("failed to load user", err)
	}

	return s.renderTemplate(c, "user_form.html", map[string]any{
		"Title":  "Edit user",
		"Action": "/users/" + id.String(),
		"Form":   user,
		"Roles":  []domain.Role{domain.RoleUser, domain.RoleAdmin},
	})
}

func (s *Server) handleUserUpdate(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	role := domain.Role(c.FormValue("role"))
	if err := validateUserForm(name, email, role); err != nil {
		return err
	}

	input := api.UserUpdate{Name: &name, Email: &email, Role: &role}
	if password := c.FormValue("password"); password != "" {
		input.Password = &password
	}

	user, err := s.users.Update(c.Request().Context(), id, input)
	if err != nil {
		return userError("failed to update user", err)
	}

	s.addFlash(c, fmt.Sprintf("User %s updated", user.Name))
	return redirect(c, "/users")
}

func (s *Server) handleUserDelete(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	if err := s.users.Delete(c.Request().Context(), id); err != nil {
		return userError("failed to delete user", err)
	}

	s.addFlash(c, "User deleted")
	return redirect(c, "/users")
}

func parseUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid user id")
	}
	return id, nil
}

func validateUserForm(name, email string, role domain.Role) error {
	if name == "" {
		return apperrors.ValidationError("name is required")
	}
	if email == "" {
		return apperrors.ValidationError("email is required")
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return apperrors.ValidationError("role must be admin or user")
	}
	return nil
}

// userError maps a backend rejection to the structured error taxonomy,
// keeping the backend's own message where there is one.
func userError(message string, err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return apperrors.UpstreamError(message, err)
	}

	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ValidationError(apiErr.Detail)
	case http.StatusForbidden:
		return apperrors.ForbiddenError(apiErr.Detail)
	case http.StatusNotFound:
		return apperrors.NotFoundError(apiErr.Detail)
	default:
		return apperrors.UpstreamError(message, err)
	}
}

func redirect(c echo.Context, location string) error {
	if err := c.Redirect(http.StatusSeeOther, location); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
