package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"salonbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultFlowTTL = 30 * time.Minute

type flowEntry struct {
	owner string
	ctrl  *Controller
}

// Registry holds the live flows of all customers. A flow is only visible
// to the user who started it and is dropped after it has been idle for the TTL.
type Registry struct {
	mu      sync.Mutex
	flows   map[string]flowEntry
	catalog Catalog
	deps    Dependencies
	ttl     time.Duration
}

type RegistryOption func(*Registry)

// WithFlowTTL overrides how long an idle flow is kept.
func WithFlowTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

func NewRegistry(catalog Catalog, deps Dependencies, opts ...RegistryOption) *Registry {
	r := &Registry{
		flows:   make(map[string]flowEntry),
		catalog: catalog,
		deps:    deps,
		ttl:     defaultFlowTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create loads the salon catalog and starts a new flow for sess.
// Staff is optional: if it cannot be listed the flow books with any staff.
func (r *Registry) Create(ctx context.Context, sess models.Session, salonID string) (*Controller, error) {
	if !sess.Valid() {
		return nil, NewValidationError(errors.New("an authenticated session is required"))
	}
	if salonID == "" {
		return nil, NewValidationError(errors.New("salon id is required"))
	}
	log := r.deps.logger().With(zap.String("salonId", salonID), zap.String("userId", sess.UserID))

	services, err := r.catalog.ListServices(ctx, sess, salonID)
	if err != nil {
		log.Warn("failed to list services", zap.Error(err))
		return nil, AsFlowError(fmt.Errorf("list services: %w", err))
	}
	if len(services) == 0 {
		return nil, NewValidationError(errors.New("this salon has no bookable services"))
	}
	staff, err := r.catalog.ListStaff(ctx, sess, salonID)
	if err != nil {
		log.Warn("failed to list staff, continuing without staff choice", zap.Error(err))
		staff = nil
	}

	flow := NewFlow(uuid.New().String(), salonID, services, staff)
	ctrl := NewController(flow, sess, r.deps)

	r.mu.Lock()
	r.flows[flow.ID] = flowEntry{owner: sess.UserID, ctrl: ctrl}
	r.mu.Unlock()

	log.Info("booking flow started", zap.String("flowId", flow.ID), zap.Int("services", len(services)), zap.Int("staff", len(staff)))
	return ctrl, nil
}

// Get returns the caller's flow. Flows of other users and expired flows
// are reported as ErrFlowNotFound.
func (r *Registry) Get(sess models.Session, flowID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.flows[flowID]
	if !ok || e.owner != sess.UserID {
		return nil, ErrFlowNotFound
	}
	if r.expired(e.ctrl) {
		delete(r.flows, flowID)
		return nil, ErrFlowNotFound
	}
	return e.ctrl, nil
}

// Discard drops the caller's flow. The appointment, if one was created,
// stays with the backend.
func (r *Registry) Discard(sess models.Session, flowID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.flows[flowID]
	if !ok || e.owner != sess.UserID {
		return ErrFlowNotFound
	}
	delete(r.flows, flowID)
	return nil
}

// Sweep removes expired flows and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.flows {
		if r.expired(e.ctrl) {
			delete(r.flows, id)
			n++
		}
	}
	return n
}

// Len returns the number of live flows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// StartJanitor sweeps expired flows every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.deps.logger().Debug("expired booking flows removed", zap.Int("count", n))
				}
			}
		}
	}()
}

func (r *Registry) expired(c *Controller) bool {
	return r.deps.now().Sub(c.lastTouched()) > r.ttl
}
