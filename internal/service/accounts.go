package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KerenDoz/Event-Planner/internal/domain/session"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
	"github.com/KerenDoz/Event-Planner/internal/identity"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/KerenDoz/Event-Planner/internal/security"
)

const (
	msgUsernameTaken    = "Username is already taken."
	msgEmailTaken       = "Email is already registered."
	msgPasswordMismatch = "Passwords do not match."
	msgPasswordTooShort = "Password must be at least 6 characters long."
	msgInvalidPassword  = "Invalid password."
)

// InvalidLoginMessage is shared by every login failure.
const InvalidLoginMessage = "Invalid login attempt."

// Identity is the credential collaborator.
type Identity interface {
	FindByID(ctx context.Context, id string) (user.User, error)
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	CreateUser(ctx context.Context, username, email, password string) (user.User, error)
	VerifyPassword(u user.User, password string) bool
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	SetPassword(ctx context.Context, u user.User, password string) (user.User, error)
}

type SessionIssuer interface {
	IssueSession(ctx context.Context, u user.User, persistent bool) (identity.Session, error)
	RefreshSession(u user.User, persistent bool) (identity.Session, error)
	RotateSession(ctx context.Context, raw string) (identity.Session, user.User, error)
	RevokeSession(ctx context.Context, raw string) error
	RevokeAllSessions(ctx context.Context, userID string) error
}

type Accounts struct {
	ids      Identity
	sessions SessionIssuer
	prom     *observability.Prom
}

func NewAccounts(ids Identity, sessions SessionIssuer, prom *observability.Prom) *Accounts {
	return &Accounts{ids: ids, sessions: sessions, prom: prom}
}

// Register creates the user and signs them in with a non-persistent session.
func (s *Accounts) Register(ctx context.Context, req user.RegisterRequest) (user.User, identity.Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	verr, err := fieldErrors(validation.Struct(req))
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	verr = checkPassword(verr, "password", req.Password)
	if req.Password != req.ConfirmPassword {
		verr = verr.Add("confirmPassword", "match", msgPasswordMismatch)
	}

	if !verr.Has("username") {
		taken, err := s.usernameTaken(ctx, req.Username, "")
		if err != nil {
			return user.User{}, identity.Session{}, err
		}
		if taken {
			verr = verr.Add("username", "duplicate", msgUsernameTaken)
		}
	}

	if !verr.Has("email") {
		taken, err := s.emailTaken(ctx, req.Email, "")
		if err != nil {
			return user.User{}, identity.Session{}, err
		}
		if taken {
			verr = verr.Add("email", "duplicate", msgEmailTaken)
		}
	}

	if err := verr.Err(); err != nil {
		s.prom.AuthResult("register", "invalid")
		return user.User{}, identity.Session{}, err
	}

	u, err := s.ids.CreateUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if verr := uniquenessError(err, accountFields); verr != nil {
			s.prom.AuthResult("register", "invalid")
			return user.User{}, identity.Session{}, verr
		}
		s.prom.AuthResult("register", "error")
		return user.User{}, identity.Session{}, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.sessions.IssueSession(ctx, u, false)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	s.prom.AuthResult("register", "ok")
	return u, sess, nil
}

// Login resolves the identifier as a username first, then as an email.
// Every failure is user.ErrInvalidLogin.
func (s *Accounts) Login(ctx context.Context, req user.LoginRequest) (user.User, identity.Session, error) {
	identifier := strings.TrimSpace(req.UsernameOrEmail)

	u, err := s.ids.FindByUsername(ctx, identifier)
	if errors.Is(err, user.ErrNotFound) {
		u, err = s.ids.FindByEmail(ctx, identifier)
	}

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.prom.AuthResult("login", "invalid")
			return user.User{}, identity.Session{}, user.ErrInvalidLogin
		}
		return user.User{}, identity.Session{}, fmt.Errorf("find user: %w", err)
	}

	if !s.ids.VerifyPassword(u, req.Password) {
		s.prom.AuthResult("login", "invalid")
		return user.User{}, identity.Session{}, user.ErrInvalidLogin
	}

	sess, err := s.sessions.IssueSession(ctx, u, req.RememberMe)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	s.prom.AuthResult("login", "ok")
	return u, sess, nil
}

// Logout revokes the refresh token when the session had one.
func (s *Accounts) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeSession(ctx, refreshToken)
}

// Refresh rotates a persistent session.
func (s *Accounts) Refresh(ctx context.Context, refreshToken string) (user.User, identity.Session, error) {
	if refreshToken == "" {
		s.prom.AuthResult("refresh", "invalid")
		return user.User{}, identity.Session{}, session.ErrInvalidSession
	}

	sess, u, err := s.sessions.RotateSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			s.prom.AuthResult("refresh", "invalid")
		}
		return user.User{}, identity.Session{}, err
	}

	s.prom.AuthResult("refresh", "ok")
	return u, sess, nil
}

func (s *Accounts) Profile(ctx context.Context, userID string) (user.User, error) {
	return s.ids.FindByID(ctx, userID)
}

// Manage updates username and email together.
func (s *Accounts) Manage(ctx context.Context, userID string, req user.ManageRequest, persistent bool) (user.User, identity.Session, error) {
	u, err := s.ids.FindByID(ctx, userID)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	verr, err := fieldErrors(validation.Struct(req))
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	if !verr.Has("username") {
		taken, err := s.usernameTaken(ctx, req.Username, u.ID)
		if err != nil {
			return user.User{}, identity.Session{}, err
		}
		if taken {
			verr = verr.Add("username", "duplicate", msgUsernameTaken)
		}
	}

	if !verr.Has("email") {
		taken, err := s.emailTaken(ctx, req.Email, u.ID)
		if err != nil {
			return user.User{}, identity.Session{}, err
		}
		if taken {
			verr = verr.Add("email", "duplicate", msgEmailTaken)
		}
	}

	if err := verr.Err(); err != nil {
		return user.User{}, identity.Session{}, err
	}

	u.Username = req.Username
	u.Email = req.Email
	return s.save(ctx, u, persistent, accountFields)
}

func (s *Accounts) ChangeUsername(ctx context.Context, userID string, req user.ChangeUsernameRequest, persistent bool) (user.User, identity.Session, error) {
	u, err := s.reauthenticate(ctx, userID, req.CurrentPassword)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	req.NewUsername = strings.TrimSpace(req.NewUsername)
	if err := validation.Struct(req); err != nil {
		return user.User{}, identity.Session{}, err
	}

	taken, err := s.usernameTaken(ctx, req.NewUsername, u.ID)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}
	if taken {
		return user.User{}, identity.Session{}, validation.Field("newUsername", "duplicate", msgUsernameTaken)
	}

	u.Username = req.NewUsername
	return s.save(ctx, u, persistent, changeFields)
}

func (s *Accounts) ChangeEmail(ctx context.Context, userID string, req user.ChangeEmailRequest, persistent bool) (user.User, identity.Session, error) {
	u, err := s.reauthenticate(ctx, userID, req.CurrentPassword)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	req.NewEmail = strings.TrimSpace(req.NewEmail)
	if err := validation.Struct(req); err != nil {
		return user.User{}, identity.Session{}, err
	}

	taken, err := s.emailTaken(ctx, req.NewEmail, u.ID)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}
	if taken {
		return user.User{}, identity.Session{}, validation.Field("newEmail", "duplicate", msgEmailTaken)
	}

	u.Email = req.NewEmail
	return s.save(ctx, u, persistent, changeFields)
}

// ChangePassword signs out every other device by revoking all refresh tokens,
// then issues a fresh session of the same kind.
func (s *Accounts) ChangePassword(ctx context.Context, userID string, req user.ChangePasswordRequest, persistent bool) (user.User, identity.Session, error) {
	u, err := s.reauthenticate(ctx, userID, req.CurrentPassword)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	verr, err := fieldErrors(validation.Struct(req))
	if err != nil {
		return user.User{}, identity.Session{}, err
	}

	verr = checkPassword(verr, "newPassword", req.NewPassword)
	if req.NewPassword != req.ConfirmNewPassword {
		verr = verr.Add("confirmNewPassword", "match", msgPasswordMismatch)
	}
	if err := verr.Err(); err != nil {
		return user.User{}, identity.Session{}, err
	}

	u, err = s.ids.SetPassword(ctx, u, req.NewPassword)
	if err != nil {
		return user.User{}, identity.Session{}, fmt.Errorf("set password: %w", err)
	}

	if err := s.sessions.RevokeAllSessions(ctx, u.ID); err != nil {
		return user.User{}, identity.Session{}, fmt.Errorf("revoke sessions: %w", err)
	}

	sess, err := s.sessions.IssueSession(ctx, u, persistent)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}
	return u, sess, nil
}

func (s *Accounts) reauthenticate(ctx context.Context, userID, password string) (user.User, error) {
	u, err := s.ids.FindByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if !s.ids.VerifyPassword(u, password) {
		return user.User{}, validation.Field("currentPassword", "password", msgInvalidPassword)
	}
	return u, nil
}

// save persists u and re-signs the access token with the new claims.
// fields names the form fields a unique index violation is reported on.
func (s *Accounts) save(ctx context.Context, u user.User, persistent bool, fields uniqueFields) (user.User, identity.Session, error) {
	out, err := s.ids.UpdateUser(ctx, u)
	if err != nil {
		if verr := uniquenessError(err, fields); verr != nil {
			return user.User{}, identity.Session{}, verr
		}
		return user.User{}, identity.Session{}, fmt.Errorf("update user: %w", err)
	}

	sess, err := s.sessions.RefreshSession(out, persistent)
	if err != nil {
		return user.User{}, identity.Session{}, err
	}
	return out, sess, nil
}

// usernameTaken reports whether another user (not selfID) holds username.
func (s *Accounts) usernameTaken(ctx context.Context, username, selfID string) (bool, error) {
	found, err := s.ids.FindByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find by username: %w", err)
	}
	return found.ID != selfID, nil
}

func (s *Accounts) emailTaken(ctx context.Context, email, selfID string) (bool, error) {
	found, err := s.ids.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find by email: %w", err)
	}
	return found.ID != selfID, nil
}

// fieldErrors splits a validation failure from any other error.
func fieldErrors(err error) (*validation.Error, error) {
	if err == nil {
		return nil, nil
	}
	if verr, ok := validation.As(err); ok {
		return verr, nil
	}
	return nil, err
}

func checkPassword(verr *validation.Error, field, password string) *validation.Error {
	if verr.Has(field) {
		return verr
	}
	if errors.Is(security.CheckPolicy(password), security.ErrPasswordTooShort) {
		return verr.Add(field, "min", msgPasswordTooShort)
	}
	return verr
}

// uniqueFields holds the form field names of the unique user columns.
type uniqueFields struct {
	username string
	email    string
}

var (
	accountFields = uniqueFields{username: "username", email: "email"}
	changeFields  = uniqueFields{username: "newUsername", email: "newEmail"}
)

// uniquenessError maps a unique index violation raised by the store (a race
// past the pre-check) to the field error the pre-check would have produced.
func uniquenessError(err error, fields uniqueFields) error {
	switch {
	case errors.Is(err, user.ErrUsernameTaken):
		return validation.Field(fields.username, "duplicate", msgUsernameTaken)
	case errors.Is(err, user.ErrEmailTaken):
		return validation.Field(fields.email, "duplicate", msgEmailTaken)
	}
	return nil
}
