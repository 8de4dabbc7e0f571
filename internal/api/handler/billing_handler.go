package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

type BillingHandler struct {
	plans   ports.PlanService
	session ports.SessionService
}

func NewBillingHandler(plans ports.PlanService, session ports.SessionService) *BillingHandler {
	return &BillingHandler{plans: plans, session: session}
}

// Plans lists the pricing plans with the caller's selection state.
//
// @Summary      List plans
// @Tags         billing
// @Produce      json
// @Success      200  {object}  planListResponse
// @Router       /plans [get]
func (h *BillingHandler) Plans(c echo.Context) error {
	var current domain.Plan
	if u, ok := h.session.User(); ok {
		current = u.Plan
	}

	all := h.plans.Plans()
	resp := planListResponse{Plans: make([]planView, 0, len(all))}
	for _, p := range all {
		resp.Plans = append(resp.Plans, planView{
			PricingPlan: p,
			Current:     p.ID == current,
			Selectable:  h.session.IsAuthenticated() && h.plans.CanSelect(p.ID),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Subscribe switches the signed-in user to a plan.
//
// @Summary      Subscribe to a plan
// @Tags         billing
// @Produce      json
// @Param        id   path      string  true  "Plan ID"
// @Success      200  {object}  domain.Subscription
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /plans/{id}/subscribe [post]
func (h *BillingHandler) Subscribe(c echo.Context) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}
	plan, err := domain.ParsePlan(c.Param("id"))
	if err != nil {
		return err
	}
	sub, err := h.plans.Select(c.Request().Context(), plan)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}
