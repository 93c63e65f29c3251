// Package client is the storefront's persistence adapter: it talks to the
// storefront API and keeps a local mirror of reviews so the review list
// survives an unreachable API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gleejeyly/storefront/internal/client/mirror"
	"github.com/gleejeyly/storefront/internal/domain"
	"github.com/gleejeyly/storefront/pkg/health"
	"github.com/gleejeyly/storefront/pkg/httpclient"
	"github.com/gleejeyly/storefront/pkg/httputil"
	"github.com/gleejeyly/storefront/pkg/logger"
	"github.com/gleejeyly/storefront/pkg/middleware"
)

const remoteName = "storefront api"

// ErrOrderNotSaved is returned when an order could not be stored by the API.
var ErrOrderNotSaved = errors.New("order not saved")

// Doer executes an HTTP request. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Options configures an Adapter.
type Options struct {
	// APIBase is the API root, e.g. http://localhost:3000/api.
	APIBase string
	// Timeout bounds each API call. Zero disables the bound.
	Timeout time.Duration
	// MessengerPhone is the shop's number used in order deep links.
	MessengerPhone string
}

// OrderReceipt is the result of a stored order.
type OrderReceipt struct {
	Order         domain.Order `json:"order"`
	MessengerLink string       `json:"messengerLink"`
}

// Adapter is one client session. It is safe for concurrent use.
type Adapter struct {
	api    Doer
	base   string
	opts   Options
	mirror mirror.Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	reviews []domain.MirroredReview

	// reconcileMu keeps reconciliation passes from overlapping.
	reconcileMu sync.Mutex
}

// NewAPIClient builds the breaker-wrapped HTTP client the adapter uses.
// Per-call deadlines come from the adapter, so the client itself has none.
func NewAPIClient(logger *slog.Logger) *httpclient.CircuitBreakerClient {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 0
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("storefront-api"),
		logger,
	)
}

// NewAdapter creates a client session.
func NewAdapter(opts Options, api Doer, store mirror.Store, logger *slog.Logger) *Adapter {
	if opts.MessengerPhone == "" {
		opts.MessengerPhone = domain.DefaultMessengerPhone
	}
	return &Adapter{
		api:     api,
		base:    strings.TrimRight(opts.APIBase, "/"),
		opts:    opts,
		mirror:  store,
		logger:  logger,
		now:     time.Now,
		reviews: []domain.MirroredReview{},
	}
}

// Reviews returns a snapshot of the in-memory review list, newest first.
func (a *Adapter) Reviews() []domain.MirroredReview {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Adapter) snapshotLocked() []domain.MirroredReview {
	out := make([]domain.MirroredReview, len(a.reviews))
	copy(out, a.reviews)
	return out
}

// LoadReviews refreshes the list from the API. When the API cannot answer,
// the mirror is served instead; only a mirror failure is returned.
func (a *Adapter) LoadReviews(ctx context.Context) ([]domain.MirroredReview, error) {
	var remote []domain.Review
	err := a.call(ctx, http.MethodGet, "/reviews", nil, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&remote)
	})
	if err != nil {
		a.logger.WarnContext(ctx, "reviews API unavailable, using local mirror",
			slog.String("error", err.Error()),
		)
		local, lerr := a.mirror.Load(ctx)
		if lerr != nil {
			return nil, fmt.Errorf("load reviews: %w", lerr)
		}
		a.mu.Lock()
		unsaved := slices.Clone(withMissing(local, a.reviews, domain.MirroredReview.Pending)[len(local):])
		a.reviews = append(unsaved, local...)
		out := a.snapshotLocked()
		a.mu.Unlock()

		if len(unsaved) > 0 {
			a.save(ctx, out)
		}
		return out, nil
	}

	stored := a.loadMirror(ctx)

	a.mu.Lock()
	known := make(map[int64]bool, len(remote))
	for _, r := range remote {
		known[r.ID] = true
	}
	var pending []domain.MirroredReview
	for _, list := range [][]domain.MirroredReview{a.reviews, stored} {
		for _, m := range list {
			if m.Pending() && !known[m.ID] {
				known[m.ID] = true
				pending = append(pending, m)
			}
		}
	}
	a.reviews = append(pending, domain.Confirmed(remote)...)
	snapshot := a.snapshotLocked()
	a.mu.Unlock()

	a.save(ctx, snapshot)

	if len(pending) > 0 {
		if pushed, err := a.Reconcile(ctx); err != nil {
			a.logger.WarnContext(ctx, "review reconciliation incomplete",
				slog.Int("pushed", pushed),
				slog.String("error", err.Error()),
			)
		}
		return a.Reviews(), nil
	}
	return snapshot, nil
}

// SubmitReview validates and stores a review. A review the API could not
// take is kept locally as pending; both outcomes appear in the list.
// Reviews other sessions left in the mirror are kept.
func (a *Adapter) SubmitReview(ctx context.Context, r domain.Review) (domain.MirroredReview, error) {
	if err := domain.ValidateReviewForm(r); err != nil {
		return domain.MirroredReview{}, err
	}
	r.Stamp(a.now())

	stored := a.loadMirror(ctx)

	a.mu.Lock()
	a.reviews = withMissing(a.reviews, stored, nil)
	taken := make(map[int64]bool, len(a.reviews))
	for _, existing := range a.reviews {
		taken[existing.ID] = true
	}
	for taken[r.ID] {
		r.ID++
	}
	m := domain.MirroredReview{Review: r, Sync: domain.SyncPendingLocal}
	a.reviews = append([]domain.MirroredReview{m}, a.reviews...)
	a.mu.Unlock()

	var created domain.Review
	err := a.call(ctx, http.MethodPost, "/reviews", r, func(resp *http.Response) error {
		return httputil.DecodeData(resp.Body, &created)
	})
	if err != nil {
		a.logger.WarnContext(ctx, "review kept locally until the API is reachable",
			slog.Int64("review_id", r.ID),
			slog.String("error", err.Error()),
		)
	} else {
		m = domain.MirroredReview{Review: created, Sync: domain.SyncConfirmedRemote}
		a.confirm(r.ID, created)
	}

	a.save(ctx, a.Reviews())
	return m, nil
}

// SubmitOrder validates, prices and stores an order. Every API failure is
// returned wrapped in ErrOrderNotSaved.
func (a *Adapter) SubmitOrder(ctx context.Context, o domain.Order) (OrderReceipt, error) {
	if err := domain.ValidateOrderForm(o); err != nil {
		return OrderReceipt{}, err
	}
	o.Price()

	var stored domain.Order
	err := a.call(ctx, http.MethodPost, "/orders", o, func(resp *http.Response) error {
		return httputil.DecodeData(resp.Body, &stored)
	})
	if err != nil {
		return OrderReceipt{}, fmt.Errorf("%w: %w", ErrOrderNotSaved, err)
	}

	return OrderReceipt{
		Order:         stored,
		MessengerLink: domain.MessengerLink(a.opts.MessengerPhone, stored),
	}, nil
}

// ListOrders returns every stored order.
func (a *Adapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := a.call(ctx, http.MethodGet, "/orders", nil, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&orders)
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Health queries the API liveness endpoint.
func (a *Adapter) Health(ctx context.Context) (health.Response, error) {
	var resp health.Response
	err := a.call(ctx, http.MethodGet, "/health", nil, func(r *http.Response) error {
		return json.NewDecoder(r.Body).Decode(&resp)
	})
	if err != nil {
		return health.Response{}, fmt.Errorf("health check: %w", err)
	}
	return resp, nil
}

// Reconcile pushes pending reviews oldest first, stopping at the first
// failure. It returns how many reviews were confirmed.
func (a *Adapter) Reconcile(ctx context.Context) (int, error) {
	a.reconcileMu.Lock()
	defer a.reconcileMu.Unlock()

	stored := a.loadMirror(ctx)

	a.mu.Lock()
	a.reviews = withMissing(a.reviews, stored, nil)
	var pending []domain.Review
	for i := len(a.reviews) - 1; i >= 0; i-- {
		if a.reviews[i].Pending() {
			pending = append(pending, a.reviews[i].Review)
		}
	}
	a.mu.Unlock()

	if len(pending) == 0 {
		return 0, nil
	}

	pushed := 0
	var pushErr error
	for _, r := range pending {
		var created domain.Review
		err := a.call(ctx, http.MethodPost, "/reviews", r, func(resp *http.Response) error {
			return httputil.DecodeData(resp.Body, &created)
		})
		if err != nil {
			pushErr = fmt.Errorf("push review %d: %w", r.ID, err)
			break
		}
		a.confirm(r.ID, created)
		pushed++
	}

	if pushed > 0 {
		a.save(ctx, a.Reviews())
		a.logger.InfoContext(ctx, "pending reviews confirmed", slog.Int("count", pushed))
	}
	return pushed, pushErr
}

// RunReconciler calls Reconcile every interval until ctx is cancelled.
func (a *Adapter) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pushed, err := a.Reconcile(ctx); err != nil && ctx.Err() == nil {
				a.logger.DebugContext(ctx, "reconciliation deferred",
					slog.Int("pushed", pushed),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// confirm replaces the pending review sent as id with the record the API
// stored, whose ID may differ.
func (a *Adapter) confirm(id int64, created domain.Review) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := make([]domain.MirroredReview, 0, len(a.reviews))
	for _, m := range a.reviews {
		switch {
		case m.ID == id:
			list = append(list, domain.MirroredReview{Review: created, Sync: domain.SyncConfirmedRemote})
		case m.ID == created.ID:
		default:
			list = append(list, m)
		}
	}
	a.reviews = list
}

// loadMirror reads the mirror for merging. An unreadable mirror merges as
// empty.
func (a *Adapter) loadMirror(ctx context.Context) []domain.MirroredReview {
	stored, err := a.mirror.Load(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "review mirror unreadable", slog.String("error", err.Error()))
		return nil
	}
	return stored
}

// withMissing returns base followed by the entries of extra whose ID base
// lacks. A non-nil keep filters the added entries.
func withMissing(base, extra []domain.MirroredReview, keep func(domain.MirroredReview) bool) []domain.MirroredReview {
	out := make([]domain.MirroredReview, 0, len(base)+len(extra))
	seen := make(map[int64]bool, len(base)+len(extra))
	for _, m := range base {
		seen[m.ID] = true
		out = append(out, m)
	}
	for _, m := range extra {
		if seen[m.ID] || (keep != nil && !keep(m)) {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

func (a *Adapter) save(ctx context.Context, reviews []domain.MirroredReview) {
	if err := a.mirror.Save(ctx, reviews); err != nil {
		a.logger.WarnContext(ctx, "failed to mirror reviews", slog.String("error", err.Error()))
	}
}

// call sends body as JSON to path under the per-call timeout and hands a
// 2xx response to decode.
func (a *Adapter) call(ctx context.Context, method, path string, body any, decode func(*http.Response) error) error {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	resp, err := a.api.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, remoteName)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := decode(resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}
