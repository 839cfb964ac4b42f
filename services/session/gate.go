package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"circl/metrics"
	"circl/models"
	"circl/utils"

	"go.uber.org/zap"
)

const (
	// DefaultLogoutDelay matches the pause before the logged-out root replaces the active one.
	DefaultLogoutDelay = 300 * time.Millisecond
	defaultTokenTTL    = 30 * 24 * time.Hour
)

// SignedInHook runs whenever a device is known to be logged in as userID.
// It must not block; the gate calls it inline.
type SignedInHook func(userID int64)

type deviceState struct {
	root models.RootView
	// gen increments on every login and logout so a stale logout timer is ignored.
	gen uint64
}

// Gate selects the root view per device. The persisted flag is read once per device
// at launch; afterwards only Login and Logout change the active root.
type Gate struct {
	store       Store
	logoutDelay time.Duration
	tokenTTL    time.Duration
	onSignedIn  SignedInHook
	logger      *zap.Logger

	mu      sync.Mutex
	devices map[string]*deviceState
}

// GateConfig configures a Gate.
type GateConfig struct {
	LogoutDelay time.Duration
	TokenTTL    time.Duration
	OnSignedIn  SignedInHook
}

func NewGate(store Store, cfg GateConfig, logger *zap.Logger) *Gate {
	if cfg.LogoutDelay <= 0 {
		cfg.LogoutDelay = DefaultLogoutDelay
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		store:       store,
		logoutDelay: cfg.LogoutDelay,
		tokenTTL:    cfg.TokenTTL,
		onSignedIn:  cfg.OnSignedIn,
		logger:      logger.Named("session.gate"),
		devices:     make(map[string]*deviceState),
	}
}

func (g *Gate) signedIn(userID int64) {
	if g.onSignedIn != nil {
		g.onSignedIn(userID)
	}
}

// Launch fixes the device's root from the persisted flag. Repeated launches return the
// active root without reading the store again.
func (g *Gate) Launch(ctx context.Context, deviceID string) (models.RootView, error) {
	g.mu.Lock()
	if st, ok := g.devices[deviceID]; ok {
		root := st.root
		g.mu.Unlock()
		return root, nil
	}
	g.mu.Unlock()

	sess, err := g.store.Load(ctx, deviceID)
	if err != nil {
		return models.RootLoggedOut, err
	}

	g.mu.Lock()
	st, ok := g.devices[deviceID]
	if !ok {
		st = &deviceState{root: sess.Root()}
		g.devices[deviceID] = st
	}
	root := st.root
	g.mu.Unlock()

	if !ok && root == models.RootLoggedIn && sess.UserID != nil {
		g.signedIn(*sess.UserID)
	}
	metrics.SessionEvent("launch")
	g.logger.Debug("device launched", zap.String("device", deviceID), zap.String("root", string(root)))
	return root, nil
}

// ActiveRoot returns the device's current root. Devices that never launched are logged out.
func (g *Gate) ActiveRoot(deviceID string) models.RootView {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.devices[deviceID]; ok {
		return st.root
	}
	return models.RootLoggedOut
}

// Login persists the session, switches the root immediately and returns a session token.
func (g *Gate) Login(ctx context.Context, deviceID string, userID int64, title string) (models.LoginResponse, error) {
	if err := g.store.SaveLogin(ctx, deviceID, userID, title); err != nil {
		return models.LoginResponse{}, err
	}
	token, err := utils.GenerateSessionToken(deviceID, userID, g.tokenTTL)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	g.mu.Lock()
	st, ok := g.devices[deviceID]
	if !ok {
		st = &deviceState{}
		g.devices[deviceID] = st
	}
	st.gen++
	st.root = models.RootLoggedIn
	g.mu.Unlock()

	g.signedIn(userID)
	metrics.SessionEvent("login")
	g.logger.Info("device logged in", zap.String("device", deviceID), zap.Int64("user_id", userID))
	return models.LoginResponse{Token: token, Root: models.RootLoggedIn}, nil
}

// Logout clears user_id, sets isLoggedIn to false and, after the logout delay, swaps the
// active root to logged out. The returned channel closes once the swap has happened or
// was superseded by a later login.
func (g *Gate) Logout(ctx context.Context, deviceID string) (<-chan struct{}, error) {
	if err := g.store.ClearUser(ctx, deviceID); err != nil {
		return nil, err
	}

	g.mu.Lock()
	st, ok := g.devices[deviceID]
	if !ok {
		st = &deviceState{root: models.RootLoggedIn}
		g.devices[deviceID] = st
	}
	st.gen++
	gen := st.gen
	g.mu.Unlock()

	metrics.SessionEvent("logout")
	done := make(chan struct{})
	time.AfterFunc(g.logoutDelay, func() {
		defer close(done)
		g.mu.Lock()
		defer g.mu.Unlock()
		if st.gen != gen {
			return
		}
		st.root = models.RootLoggedOut
		g.logger.Info("device logged out", zap.String("device", deviceID))
	})
	return done, nil
}

// RevokeToken makes a session token unusable until it would have expired anyway.
func (g *Gate) RevokeToken(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	return g.store.RevokeToken(ctx, tokenHash, time.Until(expiresAt))
}

// TokenRevoked reports whether a token hash was revoked by a logout.
func (g *Gate) TokenRevoked(ctx context.Context, tokenHash string) (bool, error) {
	return g.store.IsTokenRevoked(ctx, tokenHash)
}

// SetTitle updates the stored user title.
func (g *Gate) SetTitle(ctx context.Context, deviceID, title string) error {
	return g.store.SetTitle(ctx, deviceID, title)
}

// Session returns the persisted session fields for deviceID.
func (g *Gate) Session(ctx context.Context, deviceID string) (models.Session, error) {
	return g.store.Load(ctx, deviceID)
}
