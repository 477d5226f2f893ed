package license

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status of a license.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
	StatusDisabled Status = "disabled"
	StatusInvalid  Status = "invalid"
)

// Info describes a validated license.
type Info struct {
	Key             string     `json:"key"`
	Status          Status     `json:"status"`
	Valid           bool       `json:"isValid"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	ActivationLimit *int       `json:"activationLimit"`
	ActivationUsage int        `json:"activationUsage"`
	UsageLimit      *int       `json:"usageLimit"`
	Usage           int        `json:"usage"`
	CustomerEmail   string     `json:"customerEmail,omitempty"`
	CustomerName    string     `json:"customerName,omitempty"`
}

// DefaultTTL is how long a successful validation is trusted.
const DefaultTTL = 24 * time.Hour

// Policy controls how validation results are cached.
type Policy struct {
	// TTL bounds the age of a cached validation.
	TTL time.Duration

	// Enabled turns caching on.
	Enabled bool

	// OfflineFallback accepts a cached validation for the same key when the
	// license service is unreachable.
	OfflineFallback bool
}

// DefaultPolicy caches for DefaultTTL with offline fallback.
func DefaultPolicy() Policy {
	return Policy{TTL: DefaultTTL, Enabled: true, OfflineFallback: true}
}

// Manager holds the entitlement state of one process. The editor consults
// IsValid at export time.
type Manager struct {
	validator Validator
	store     Store
	policy    Policy
	devMode   bool
	now       func() time.Time
	log       logrus.FieldLogger

	mu        sync.RWMutex
	key       string
	info      *Info
	validated bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithDevMode makes IsValid report true without any validation. It is meant
// for local development only.
func WithDevMode(on bool) Option {
	return func(m *Manager) { m.devMode = on }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager. A nil store disables caching regardless of
// the policy.
func NewManager(v Validator, s Store, p Policy, opts ...Option) *Manager {
	if p.TTL <= 0 {
		p.TTL = DefaultTTL
	}
	if s == nil {
		p.Enabled = false
	}
	m := &Manager{
		validator: v,
		store:     s,
		policy:    p,
		now:       time.Now,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.devMode {
		m.log.Warn("license development mode enabled: exports are not watermarked")
	}
	return m
}

// DevMode reports whether development mode is on.
func (m *Manager) DevMode() bool { return m.devMode }

// IsValid reports whether a valid license is active.
func (m *Manager) IsValid() bool {
	if m.devMode {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validated && m.info != nil && m.info.Valid
}

// Info returns a copy of the active license, or nil.
func (m *Manager) Info() *Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.info == nil {
		return nil
	}
	i := *m.info
	return &i
}

// Key returns the current key, or "".
func (m *Manager) Key() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key
}

// SetKey validates key and makes it the active license. A fresh cached
// validation of the same key is used without contacting the service.
func (m *Manager) SetKey(ctx context.Context, key string) (*Info, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, newError(CodeInvalidKey, "license key is required")
	}

	m.mu.Lock()
	m.key = key
	m.mu.Unlock()

	if e := m.cached(ctx, key); e != nil {
		m.log.WithField("expires", e.ExpiresAt).Debug("using cached license validation")
		return m.activate(e.Info), nil
	}
	return m.validate(ctx, key)
}

// Refresh re-validates the current key with the service, bypassing the
// cache.
func (m *Manager) Refresh(ctx context.Context) (*Info, error) {
	key := m.Key()
	if key == "" {
		return nil, newError(CodeNoLicense, "no license key set")
	}
	return m.validate(ctx, key)
}

// Clear forgets the license and its cached validation.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.key = ""
	m.info = nil
	m.validated = false
	m.mu.Unlock()

	if m.store != nil {
		return m.store.Delete(ctx)
	}
	return nil
}

func (m *Manager) validate(ctx context.Context, key string) (*Info, error) {
	if m.validator == nil {
		return nil, newError(CodeNetwork, "no license validator configured")
	}

	info, err := m.validator.Validate(ctx, key)
	if err != nil {
		if HasCode(err, CodeNetwork) && m.policy.OfflineFallback {
			if e := m.cached(ctx, key); e != nil {
				m.log.WithError(err).Warn("license service unreachable, using cached validation")
				return m.activate(e.Info), nil
			}
		}

		m.mu.Lock()
		m.info = nil
		m.validated = false
		m.mu.Unlock()
		return nil, err
	}

	active := m.activate(*info)
	if m.policy.Enabled {
		now := m.now()
		if err := m.store.Save(ctx, Entry{Info: *active, ValidatedAt: now, ExpiresAt: now.Add(m.policy.TTL)}); err != nil {
			m.log.WithError(err).Warn("failed to cache license validation")
		}
	}
	return active, nil
}

func (m *Manager) activate(info Info) *Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = &info
	m.validated = true
	out := info
	return &out
}

// cached returns the cached entry for key if caching is on and the entry is
// within its TTL. Expired entries are deleted.
func (m *Manager) cached(ctx context.Context, key string) *Entry {
	if !m.policy.Enabled {
		return nil
	}
	e, err := m.store.Load(ctx)
	if err != nil {
		m.log.WithError(err).Warn("failed to read license cache")
		return nil
	}
	if e == nil {
		return nil
	}
	if m.now().After(e.ExpiresAt) {
		if err := m.store.Delete(ctx); err != nil {
			m.log.WithError(err).Warn("failed to drop expired license cache")
		}
		return nil
	}
	if e.Info.Key != key {
		return nil
	}
	return e
}
