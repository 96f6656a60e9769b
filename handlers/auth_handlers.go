package handlers

import (
	"context"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/adamspd/patentehub/auth"
	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

type AuthHandlers struct {
	*base
	limiter *auth.RateLimiter
	cfg     *models.Config
}

func NewAuthHandlers(b *base, limiter *auth.RateLimiter, cfg *models.Config) *AuthHandlers {
	return &AuthHandlers{
		base:    b,
		limiter: limiter,
		cfg:     cfg,
	}
}

var errBadCredentials = newError(http.StatusUnauthorized, "invalid email or password")

func (ah *AuthHandlers) Register(ctx context.Context, req models.RegisterRequest) Response[*models.AuthResponse] {
	email := utils.NormalizeEmail(utils.Sanitize(req.Email))
	utils.LogAPI("Register %s", email)

	if !ah.limiter.Allow("register:"+email, ah.cfg.RegisterRateLimit, ah.cfg.RegisterRateWindow) {
		utils.LogAPI("Registration rate limited for %s", email)
		return fail[*models.AuthResponse](errRateLimited)
	}

	name := utils.Sanitize(req.Name)
	if !utils.ValidateEmail(email) {
		return fail[*models.AuthResponse](badRequest("invalid email address"))
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail[*models.AuthResponse](badRequest("%v", err))
	}
	if utf8.RuneCountInString(name) < models.MinNameLength {
		return fail[*models.AuthResponse](badRequest("name must be at least %d characters", models.MinNameLength))
	}

	hash, err := utils.HashPassword(req.Password, ah.cfg.BcryptCost)
	if err != nil {
		return fail[*models.AuthResponse](err)
	}

	var resp *models.AuthResponse
	err = ah.db.Update(ctx, func(tx *db.Tx) error {
		_, err := tx.Unique(db.Users, "email", email)
		if err == nil {
			return newError(http.StatusConflict, "email already registered")
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		user := models.NewUser(utils.GenerateID(), email, hash, name, ah.now())
		if err := tx.Put(db.Users, user); err != nil {
			return err
		}
		at, err := ah.sessions.CreateSession(tx, user.ID)
		if err != nil {
			return err
		}
		resp = authResponse(user, at)
		return nil
	})
	if err != nil {
		return fail[*models.AuthResponse](err)
	}

	utils.LogAPI("User registered: %s (ID: %s, role: %s)", email, resp.User.ID, resp.User.Role)
	return created(resp)
}

func (ah *AuthHandlers) Login(ctx context.Context, req models.LoginRequest) Response[*models.AuthResponse] {
	email := utils.NormalizeEmail(utils.Sanitize(req.Email))
	utils.LogAPI("Login %s", email)

	if !ah.limiter.Allow("login:"+email, ah.cfg.LoginRateLimit, ah.cfg.LoginRateWindow) {
		utils.LogAPI("Login rate limited for %s", email)
		return fail[*models.AuthResponse](errRateLimited)
	}

	var user *models.User
	err := ah.db.View(ctx, func(tx *db.Tx) error {
		var err error
		user, err = db.Unique[models.User](tx, db.Users, "email", email)
		return err
	})
	if errors.Is(err, db.ErrNotFound) {
		return fail[*models.AuthResponse](errBadCredentials)
	}
	if err != nil {
		return fail[*models.AuthResponse](err)
	}
	if user.IsBanned {
		return fail[*models.AuthResponse](models.ErrBanned)
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.LogAPI("Login failed for %s", email)
		return fail[*models.AuthResponse](errBadCredentials)
	}

	unlock := ah.locks.Lock(userLock(user.ID))
	defer unlock()

	var resp *models.AuthResponse
	err = ah.db.Update(ctx, func(tx *db.Tx) error {
		current, err := db.Get[models.User](tx, db.Users, user.ID)
		if errors.Is(err, db.ErrNotFound) {
			return errBadCredentials
		}
		if err != nil {
			return err
		}

		now := ah.now()
		if current.Progress.ResetBrokenStreak(now) {
			utils.LogAPI("Streak reset for %s", email)
		}
		current.LastLogin = now
		if err := tx.Put(db.Users, current); err != nil {
			return err
		}

		at, err := ah.sessions.CreateSession(tx, current.ID)
		if err != nil {
			return err
		}
		resp = authResponse(current, at)
		return nil
	})
	if err != nil {
		return fail[*models.AuthResponse](err)
	}

	utils.LogAPI("User logged in: %s (ID: %s)", email, resp.User.ID)
	return ok(resp)
}

// Logout always succeeds, even for unknown tokens.
func (ah *AuthHandlers) Logout(ctx context.Context, token string) Response[any] {
	if err := ah.sessions.DeleteSession(ctx, token); err != nil {
		return fail[any](err)
	}
	return ok[any](nil)
}

func (ah *AuthHandlers) Me(ctx context.Context, token string) Response[*models.User] {
	user, err := ah.sessions.Resolve(ctx, token)
	if err != nil {
		return fail[*models.User](err)
	}
	return ok(user.Safe())
}

// Refresh exchanges a refresh token for a new token pair.
func (ah *AuthHandlers) Refresh(ctx context.Context, refreshToken string) Response[*models.AuthResponse] {
	var resp *models.AuthResponse
	err := ah.db.Update(ctx, func(tx *db.Tx) error {
		user, at, err := ah.sessions.Refresh(tx, refreshToken)
		if err != nil {
			return err
		}
		resp = authResponse(user, at)
		return nil
	})
	if err != nil {
		return fail[*models.AuthResponse](err)
	}
	return ok(resp)
}

func (ah *AuthHandlers) UpdateProfile(ctx context.Context, token string, req models.ProfileRequest) Response[*models.User] {
	var updated *models.User
	err := ah.withUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		if req.Name != nil && *req.Name != "" {
			name := utils.Sanitize(*req.Name)
			if utf8.RuneCountInString(name) < models.MinNameLength {
				return badRequest("name must be at least %d characters", models.MinNameLength)
			}
			user.Name = name
		}
		if req.Avatar != nil {
			user.Avatar = *req.Avatar
		}
		updated = user
		return tx.Put(db.Users, user)
	})
	if err != nil {
		return fail[*models.User](err)
	}
	return ok(updated.Safe())
}

func (ah *AuthHandlers) UpdateSettings(ctx context.Context, token string, req models.UserSettingsRequest) Response[models.UserSettings] {
	if err := req.Validate(); err != nil {
		return fail[models.UserSettings](badRequest("%v", err))
	}

	var settings models.UserSettings
	err := ah.withUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		user.Settings.Apply(req)
		settings = user.Settings
		return tx.Put(db.Users, user)
	})
	if err != nil {
		return fail[models.UserSettings](err)
	}
	return ok(settings)
}

// ChangePassword requires the current password. Existing sessions stay valid.
func (ah *AuthHandlers) ChangePassword(ctx context.Context, token string, req models.ChangePasswordRequest) Response[any] {
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return fail[any](badRequest("%v", err))
	}
	hash, err := utils.HashPassword(req.NewPassword, ah.cfg.BcryptCost)
	if err != nil {
		return fail[any](err)
	}

	err = ah.withUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			return badRequest("current password is incorrect")
		}
		user.PasswordHash = hash
		return tx.Put(db.Users, user)
	})
	if err != nil {
		return fail[any](err)
	}
	return ok[any](nil)
}

func authResponse(user *models.User, at *models.AuthToken) *models.AuthResponse {
	return &models.AuthResponse{
		User:         user.Safe(),
		Token:        at.Token,
		RefreshToken: at.RefreshToken,
		ExpiresAt:    at.ExpiresAt,
	}
}
