package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"

	"github.com/nguyentranbao-ct/hds-chat/internal/kafka"
	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/localstore"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

// SessionListener is told about every change of the current user; nil means
// logged out.
type SessionListener func(ctx context.Context, user *models.User)

// AuthUsecase holds the current user and its persisted session descriptor.
type AuthUsecase struct {
	sync      SyncClient
	store     localstore.Store
	notifier  *Notifier
	tokens    *TokenIssuer
	publisher kafka.Publisher

	mu        sync.RWMutex
	user      *models.User
	loading   bool
	listeners []SessionListener
}

func NewAuthUsecase(
	syncClient SyncClient,
	store localstore.Store,
	notifier *Notifier,
	tokens *TokenIssuer,
	publisher kafka.Publisher,
) *AuthUsecase {
	return &AuthUsecase{
		sync:      syncClient,
		store:     store,
		notifier:  notifier,
		tokens:    tokens,
		publisher: publisher,
		loading:   true,
	}
}

// OnSessionChange registers fn. Listeners run synchronously after the state
// changed.
func (uc *AuthUsecase) OnSessionChange(fn SessionListener) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, fn)
}

func (uc *AuthUsecase) setUser(ctx context.Context, user *models.User) {
	uc.mu.Lock()
	uc.user = user
	listeners := append([]SessionListener(nil), uc.listeners...)
	uc.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, user)
	}
}

func (uc *AuthUsecase) CurrentUser() *models.User {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.user == nil {
		return nil
	}
	u := *uc.user
	return &u
}

func (uc *AuthUsecase) IsAuthenticated() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.user != nil
}

func (uc *AuthUsecase) IsLoading() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.loading
}

func (uc *AuthUsecase) setLoading(v bool) {
	uc.mu.Lock()
	uc.loading = v
	uc.mu.Unlock()
}

// RestoreSession revalidates the persisted session descriptor. A descriptor that
// no longer validates is discarded and the holder stays unauthenticated.
func (uc *AuthUsecase) RestoreSession(ctx context.Context) (*models.User, error) {
	uc.setLoading(true)
	defer uc.setLoading(false)

	raw, err := uc.store.Get(ctx, localstore.SessionKey)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var desc models.SessionDescriptor
	if err := json.Unmarshal([]byte(raw), &desc); err != nil || desc.APIEndpoint == "" {
		log.Warnw(ctx, "Discarding unreadable session", "error", err)
		uc.discardSession(ctx)
		return nil, nil
	}

	conn, err := uc.sync.AuthenticateWithEndpoint(ctx, desc.APIEndpoint)
	if err != nil {
		log.Warnw(ctx, "Discarding session that no longer validates", "username", desc.User.Username, "error", err)
		uc.discardSession(ctx)
		return nil, nil
	}

	user := desc.User
	user.APIEndpoint = conn.Endpoint()
	uc.setUser(ctx, &user)
	log.Infow(ctx, "Session restored", "username", user.Username)
	return uc.CurrentUser(), nil
}

func (uc *AuthUsecase) discardSession(ctx context.Context) {
	if err := uc.store.Delete(ctx, localstore.SessionKey); err != nil {
		log.Errorw(ctx, "Failed to delete session", "error", err)
	}
}

func (uc *AuthUsecase) persist(ctx context.Context, user models.User) error {
	data, err := json.Marshal(models.SessionDescriptor{
		User:        user,
		APIEndpoint: user.APIEndpoint,
		SavedAt:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := uc.store.Set(ctx, localstore.SessionKey, string(data)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func newUser(username, email string, conn HDSConnection) models.User {
	return models.User{
		ID:          username,
		Username:    username,
		DisplayName: username,
		Email:       email,
		APIEndpoint: conn.Endpoint(),
	}
}

// Login accepts an email or a username. Failures leave the current state
// untouched and are reported as models.ErrAuthentication.
func (uc *AuthUsecase) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	uc.setLoading(true)
	defer uc.setLoading(false)

	identifier = strings.TrimSpace(identifier)
	username := models.UsernameFromIdentifier(identifier)
	conn, err := uc.sync.Authenticate(ctx, username, password)
	if err != nil {
		log.Errorw(ctx, "Login failed", "username", username, "error", err)
		uc.notifier.Notify(ctx, models.NotifyError, "auth.errorLogin", nil)
		return nil, fmt.Errorf("%w: login %s", models.ErrAuthentication, username)
	}

	email := ""
	if strings.Contains(identifier, "@") {
		email = identifier
	}
	return uc.signedIn(ctx, newUser(username, email, conn), "auth.loginSuccess", models.ActivityLogin)
}

// Register creates an account and signs in with it. Failures are reported as
// models.ErrRegistration, or models.ErrConfiguration when no registration host
// exists.
func (uc *AuthUsecase) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	uc.setLoading(true)
	defer uc.setLoading(false)

	conn, err := uc.sync.Register(ctx, email, username, password)
	if err != nil {
		log.Errorw(ctx, "Registration failed", "username", username, "error", err)
		uc.notifier.Notify(ctx, models.NotifyError, "auth.errorRegister", nil)
		if errors.Is(err, models.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: register %s", models.ErrRegistration, username)
	}
	return uc.signedIn(ctx, newUser(username, email, conn), "auth.registerSuccess", models.ActivityLogin)
}

func (uc *AuthUsecase) signedIn(ctx context.Context, user models.User, key string, kind models.ActivityKind) (*models.User, error) {
	if err := uc.persist(ctx, user); err != nil {
		// the session still works, it just won't survive a restart
		log.Errorw(ctx, "Failed to persist session", "error", err)
	}
	uc.setUser(ctx, &user)
	uc.notifier.Notify(ctx, models.NotifySuccess, key, nil)
	uc.notifier.Navigate(models.RouteChat)
	uc.publisher.Publish(ctx, models.Activity{Kind: kind, UserID: user.ID, At: time.Now()})
	log.Infow(ctx, "User signed in", "username", user.Username)
	return uc.CurrentUser(), nil
}

// Logout forgets the session locally. The platform is not contacted.
func (uc *AuthUsecase) Logout(ctx context.Context) {
	user := uc.CurrentUser()
	uc.discardSession(ctx)
	uc.sync.Reset()
	uc.setUser(ctx, nil)
	uc.notifier.Notify(ctx, models.NotifyInfo, "auth.loggedOut", nil)
	uc.notifier.Navigate(models.RouteLogin)
	if user != nil {
		uc.publisher.Publish(ctx, models.Activity{Kind: models.ActivityLogout, UserID: user.ID, At: time.Now()})
	}
}

// IssueToken signs a bearer token for the current user.
func (uc *AuthUsecase) IssueToken() (string, time.Time, error) {
	user := uc.CurrentUser()
	if user == nil {
		return "", time.Time{}, models.ErrNotAuthenticated
	}
	return uc.tokens.Issue(*user)
}

// Authorize resolves a bearer token to the current user. Tokens of another or a
// former user are rejected.
func (uc *AuthUsecase) Authorize(token string) (*models.User, error) {
	user, _, err := uc.AuthorizeClaims(token)
	return user, err
}

// AuthorizeClaims is Authorize that also returns the verified claims.
func (uc *AuthUsecase) AuthorizeClaims(token string) (*models.User, *jwt.RegisteredClaims, error) {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	user := uc.CurrentUser()
	if user == nil || user.ID != claims.Subject {
		return nil, nil, models.ErrNotAuthenticated
	}
	return user, claims, nil
}
