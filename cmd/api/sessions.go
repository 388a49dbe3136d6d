package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"cartflow/pkg/cart"
	"cartflow/pkg/cartview"
	"cartflow/pkg/logger"
)

const (
	cartCookie     = "cart_id"
	restoreTimeout = 5 * time.Second
)

// session is the cart state of one client.
type session struct {
	id          string
	store       *cart.Store
	promo       *cartview.PromoSelection
	unsubscribe func()
	lastSeen    time.Time
}

// sessions keeps one cart store per client id. A store is restored from
// storage the first time an id is seen and dropped again once idle.
type sessions struct {
	storage cart.Storage
	log     *logger.Logger
	now     func() time.Time

	group singleflight.Group

	mu   sync.Mutex
	byID map[string]*session
}

func newSessions(storage cart.Storage, log *logger.Logger) *sessions {
	return &sessions{storage: storage, log: log, now: time.Now, byID: make(map[string]*session)}
}

// get returns the session for id, restoring it when needed. A failed storage
// read is returned and nothing is cached, so the durable cart is never
// replaced by an empty one.
func (s *sessions) get(ctx context.Context, id string) (*session, error) {
	if sess, ok := s.lookup(id); ok {
		return sess, nil
	}
	v, err, _ := s.group.Do(id, func() (any, error) {
		return s.open(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

func (s *sessions) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

func (s *sessions) open(ctx context.Context, id string) (*session, error) {
	if sess, ok := s.lookup(id); ok {
		return sess, nil
	}

	// The restore outlives the request that triggered it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()

	log := s.log.With("cart_id", id)
	store, err := cart.Open(ctx, s.storage, "cart:"+id, log)
	if err != nil {
		return nil, err
	}
	unsubscribe := store.Subscribe(func(snap cart.Snapshot) {
		log.Debug(context.Background(), "cart changed", "total_items", snap.TotalItems, "entries", len(snap.Entries))
	})

	sess := &session{id: id, store: store, promo: &cartview.PromoSelection{}, unsubscribe: unsubscribe}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastSeen = s.now()
	s.byID[id] = sess
	return sess, nil
}

// sweep drops sessions not seen for longer than idle and returns how many
// were dropped. Their carts stay in storage.
func (s *sessions) sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.byID {
		if sess.lastSeen.Before(cutoff) {
			sess.unsubscribe()
			delete(s.byID, id)
			n++
		}
	}
	return n
}

// run sweeps idle sessions until ctx is done.
func (s *sessions) run(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(idle); n > 0 {
				s.log.Debug(ctx, "evicted idle cart sessions", "count", n)
			}
		}
	}
}

type sessionKey struct{}

// middleware attaches the caller's cart session, issuing a new
// cart_id cookie when the request carries none or an invalid one.
func (s *sessions) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(cartCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookie,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(365 * 24 * time.Hour),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess, err := s.get(r.Context(), id)
		if err != nil {
			s.log.Error(r.Context(), "open cart session", "cart_id", id, "error", err)
			http.Error(w, "cart storage unavailable", http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionKey{}).(*session)
	return sess
}
