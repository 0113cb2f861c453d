package courierclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	healthPath             = "/api/health"
	defaultRevalidateEvery = 5 * time.Minute
	defaultProbeTimeout    = 5 * time.Second
)

// ErrNoReachableServer is returned when no candidate answers its health probe.
var ErrNoReachableServer = errors.New("courier api: no reachable server")

// Resolver picks the API base URL from an ordered candidate list by probing
// each one's health endpoint. The winner is cached and re-probed once the
// revalidation interval has elapsed.
type Resolver struct {
	candidates []string
	http       *http.Client
	interval   time.Duration
	log        zerolog.Logger
	now        func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	current   string
	checkedAt time.Time
}

type ResolverOption func(*Resolver)

func WithProbeClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.http = c }
}

func WithRevalidateInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.interval = d }
}

func WithResolverLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

func NewResolver(candidates []string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		http:     &http.Client{Timeout: defaultProbeTimeout},
		interval: defaultRevalidateEvery,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, c := range candidates {
		if c = strings.TrimRight(strings.TrimSpace(c), "/"); c != "" {
			r.candidates = append(r.candidates, c)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BaseURL returns the cached base URL, resolving it first when the cache is
// empty or stale. Concurrent callers share one resolution.
func (r *Resolver) BaseURL(ctx context.Context) (string, error) {
	r.mu.RLock()
	current, fresh := r.current, r.now().Sub(r.checkedAt) < r.interval
	r.mu.RUnlock()
	if current != "" && fresh {
		return current, nil
	}

	v, err, _ := r.group.Do("resolve", func() (any, error) {
		return r.resolve(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate forces the next BaseURL call to probe again.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.checkedAt = time.Time{}
	r.mu.Unlock()
}

func (r *Resolver) resolve(ctx context.Context) (string, error) {
	r.mu.RLock()
	previous := r.current
	r.mu.RUnlock()

	order := make([]string, 0, len(r.candidates)+1)
	if previous != "" {
		order = append(order, previous)
	}
	for _, c := range r.candidates {
		if c != previous {
			order = append(order, c)
		}
	}

	for _, base := range order {
		if err := r.probe(ctx, base); err != nil {
			r.log.Debug().Err(err).Str("base_url", base).Msg("candidate unreachable")
			continue
		}
		r.mu.Lock()
		r.current = base
		r.checkedAt = r.now()
		r.mu.Unlock()
		if base != previous {
			r.log.Info().Str("base_url", base).Msg("api base url selected")
		}
		return base, nil
	}
	return "", ErrNoReachableServer
}

func (r *Resolver) probe(ctx context.Context, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe returned %d", resp.StatusCode)
	}
	return nil
}
