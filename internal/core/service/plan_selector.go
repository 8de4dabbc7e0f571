package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/pkg/metrics"
	"github.com/dataflow/console/internal/reference"
)

// SessionRefresher is the slice of the session the billing and account
// services need: who is signed in, and a way to reload the profile after a
// change on the backend.
type SessionRefresher interface {
	UserSource
	RefreshUser(ctx context.Context) error
}

// PlanSelector drives plan changes. At most one subscription call per plan
// is in flight at any time.
type PlanSelector struct {
	api     ports.BillingAPI
	session SessionRefresher
	log     zerolog.Logger

	mu       sync.Mutex
	inFlight map[domain.Plan]struct{}
}

var _ ports.PlanService = (*PlanSelector)(nil)

func NewPlanSelector(api ports.BillingAPI, session SessionRefresher, log zerolog.Logger) *PlanSelector {
	return &PlanSelector{
		api:      api,
		session:  session,
		log:      log,
		inFlight: make(map[domain.Plan]struct{}),
	}
}

func (p *PlanSelector) Plans() []domain.PricingPlan {
	return reference.Plans()
}

// CanSelect reports whether the plan's select action is available: it is not
// the current plan and no subscription to it is in progress.
func (p *PlanSelector) CanSelect(plan domain.Plan) bool {
	if u, ok := p.session.User(); ok && u.Plan == plan {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, busy := p.inFlight[plan]
	return !busy
}

// Select subscribes the signed-in user to plan and reloads the profile so
// the new plan is visible. Selecting the current plan is not rejected here.
func (p *PlanSelector) Select(ctx context.Context, plan domain.Plan) (*domain.Subscription, error) {
	if _, ok := p.session.User(); !ok {
		return nil, domain.ErrNotAuthenticated
	}
	if _, known := reference.Plan(plan); !known {
		return nil, fmt.Errorf("select plan: %w: %q", domain.ErrInvalidPlan, plan)
	}

	p.mu.Lock()
	if _, busy := p.inFlight[plan]; busy {
		p.mu.Unlock()
		return nil, domain.ErrSubscriptionInFlight
	}
	p.inFlight[plan] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, plan)
		p.mu.Unlock()
	}()

	sub, err := p.api.Subscribe(ctx, plan)
	if err != nil {
		metrics.SubscriptionsTotal.WithLabelValues(string(plan), "error").Inc()
		return nil, fmt.Errorf("select plan %s: %w", plan, err)
	}
	metrics.SubscriptionsTotal.WithLabelValues(string(plan), "ok").Inc()

	if err := p.session.RefreshUser(ctx); err != nil {
		p.log.Warn().Err(err).Str("plan", string(plan)).Msg("subscribed but failed to reload profile")
	}

	p.log.Info().Str("plan", string(plan)).Msg("plan selected")
	return sub, nil
}
