// Package checkout starts payments for the published plans and settles them
// when the payment provider redirects back.
package checkout

import (
	"strings"

	"musicworks/internal/paymentclient"
	"musicworks/pkg/domain"
)

type Plan struct {
	ID          string
	Description string
	Amount      int64
	Currency    string
	Method      domain.PaymentMethod
}

var (
	PlanSubscription = Plan{
		ID:          "subscription",
		Description: "Monthly Subscription",
		Amount:      2999,
		Currency:    "usd",
		Method:      domain.MethodMercadoPago,
	}
	PlanSingle = Plan{
		ID:          "single",
		Description: "Single Work Registration",
		Amount:      999,
		Currency:    "usd",
		Method:      domain.MethodMercadoPago,
	}
)

// Plans lists the plans in display order.
func Plans() []Plan {
	return []Plan{PlanSubscription, PlanSingle}
}

// FindPlan looks a plan up by id, case-insensitively.
func FindPlan(id string) (Plan, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Request builds the create-payment body. workID may be empty.
func (p Plan) Request(workID string) paymentclient.CreateRequest {
	return paymentclient.CreateRequest{
		WorkID:        strings.TrimSpace(workID),
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: p.Method,
		Description:   p.Description,
	}
}

func (p Plan) Price() string {
	return domain.FormatAmount(p.Amount, p.Currency)
}
