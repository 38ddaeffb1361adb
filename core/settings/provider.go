package settings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	qerrors "move-quote/internal/errors"
	"move-quote/internal/logging"
)

// DefaultReloadTimeout bounds a single reload
const DefaultReloadTimeout = 10 * time.Second

// Source fetches settings documents from an upstream store
type Source interface {
	// Name identifies the source in logs and snapshots
	Name() string

	Fetch(ctx context.Context) (Document, error)
}

// StaticSource serves a fixed document
type StaticSource struct {
	Label string
	Doc   Document
}

// Name implements Source
func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Fetch implements Source
func (s StaticSource) Fetch(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	return s.Doc.clone(), nil
}

// Provider publishes settings snapshots. Current is lock-free; reloads are
// serialized and publish with a single atomic swap.
type Provider struct {
	source  Source
	current atomic.Pointer[Snapshot]

	mu      sync.Mutex
	version int64

	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithTimeout overrides DefaultReloadTimeout
func WithTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		p.timeout = d
	}
}

// WithLogger sets the provider logger
func WithLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logging.OrNop(l)
	}
}

// WithClock overrides the clock used to stamp LoadedAt
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a provider over source. Nothing is loaded until
// Reload is called; until then Current returns Default().
func NewProvider(source Source, opts ...ProviderOption) *Provider {
	p := &Provider{
		source:  source,
		timeout: DefaultReloadTimeout,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the last published snapshot, or the compiled-in default
// when no reload has ever succeeded
func (p *Provider) Current() *Snapshot {
	if s := p.current.Load(); s != nil {
		return s
	}
	return Default()
}

// Loaded reports whether a reload has ever succeeded
func (p *Provider) Loaded() bool {
	return p.current.Load() != nil
}

// SourceName returns the name of the configured source
func (p *Provider) SourceName() string {
	if p.source == nil {
		return ""
	}
	return p.source.Name()
}

// Reload fetches, validates and publishes a new snapshot. On failure it
// returns a SETTINGS_LOAD_ERROR and the published snapshot is untouched.
// Every success gets a new version, even when nothing changed upstream.
func (p *Provider) Reload(ctx context.Context) (*Snapshot, error) {
	snap, _, err := p.reload(ctx)
	return snap, err
}

// reload also reports whether a failure is worth retrying
func (p *Provider) reload(ctx context.Context) (*Snapshot, bool, error) {
	if p.source == nil {
		return nil, false, qerrors.SettingsLoad("no settings source configured", nil)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	name := p.source.Name()

	doc, err := p.source.Fetch(ctx)
	if err != nil {
		p.logger.Warn("settings fetch failed", zap.String("source", name), zap.Error(err))
		return nil, ctx.Err() == nil, qerrors.SettingsLoad(fmt.Sprintf("fetch settings from %s", name), err).
			WithContext("source", name)
	}

	built, err := Build(doc)
	if err != nil {
		p.logger.Error("settings document rejected",
			zap.String("source", name),
			zap.Int64("revision", doc.Revision),
			zap.Error(err))
		return nil, false, qerrors.SettingsLoad("invalid settings document", err).
			WithContext("source", name).
			WithContext("revision", doc.Revision)
	}

	if prev := p.current.Load(); prev != nil && doc.Revision < prev.Revision {
		p.logger.Warn("stale settings revision ignored",
			zap.String("source", name),
			zap.Int64("revision", doc.Revision),
			zap.Int64("published_revision", prev.Revision))
		return nil, false, qerrors.SettingsLoad(
			fmt.Sprintf("stale revision %d, published revision is %d", doc.Revision, prev.Revision), nil).
			WithContext("source", name)
	}

	p.version++
	snap := built.publish(p.version, name, p.now())
	p.current.Store(snap)

	p.logger.Info("settings published",
		zap.String("source", name),
		zap.Int64("version", snap.Version),
		zap.Int64("revision", snap.Revision),
		zap.String("hash", snap.Hash.String()),
		zap.Duration("took", p.now().Sub(start)))
	return snap, false, nil
}
