package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"musicworks/internal/apiclient"
	"musicworks/internal/util"
	"musicworks/pkg/domain"
)

// Provider redirect statuses.
const (
	StatusApproved = "approved"
	StatusFailure  = "failure"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

const (
	MsgPaymentSucceeded = "Your payment has been processed successfully."
	MsgPaymentDeclined  = "Your payment could not be processed. Please try again."
	MsgPaymentPending   = "Your payment is still being processed. We'll notify you once it's complete."
	MsgMissingPayment   = "Missing payment reference"
	msgConfirmFallback  = "An error occurred while processing your payment."
)

const confirmTimeout = 30 * time.Second

// Return is the query the provider appends to the confirmation URL.
type Return struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

func ParseReturn(q url.Values) Return {
	return Return{
		PaymentID: strings.TrimSpace(q.Get("payment_id")),
		Status:    strings.TrimSpace(q.Get("status")),
	}
}

type Result struct {
	Outcome   Outcome         `json:"outcome"`
	PaymentID string          `json:"paymentId,omitempty"`
	Message   string          `json:"message"`
	Payment   *domain.Payment `json:"payment,omitempty"`
}

// PaymentConfirmer settles a payment. state.PaymentStore implements it.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, paymentID string) (domain.Payment, error)
}

// Confirmer turns provider redirects into outcomes. Each payment id is
// confirmed at most once; repeated redirects get the first result. Only
// successes and API rejections are remembered, so a transport failure can be
// retried by the next redirect.
type Confirmer struct {
	payments PaymentConfirmer
	group    singleflight.Group

	mu   sync.Mutex
	done map[string]Result
}

func NewConfirmer(payments PaymentConfirmer) *Confirmer {
	return &Confirmer{payments: payments, done: make(map[string]Result)}
}

func (c *Confirmer) Handle(ctx context.Context, ret Return) Result {
	if ret.PaymentID == "" {
		return Result{Outcome: OutcomeFailed, Message: MsgMissingPayment}
	}
	switch ret.Status {
	case StatusApproved:
		return c.confirmOnce(ctx, ret.PaymentID)
	case StatusFailure:
		return Result{Outcome: OutcomeFailed, PaymentID: ret.PaymentID, Message: MsgPaymentDeclined}
	default:
		return Result{Outcome: OutcomePending, PaymentID: ret.PaymentID, Message: MsgPaymentPending}
	}
}

func (c *Confirmer) confirmOnce(ctx context.Context, paymentID string) Result {
	if res, ok := c.lookup(paymentID); ok {
		return res
	}
	v, _, _ := c.group.Do(paymentID, func() (any, error) {
		if res, ok := c.lookup(paymentID); ok {
			return res, nil
		}
		// the redirect that triggered this may be dropped by the browser
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
		defer cancel()
		res, final := c.confirm(cctx, paymentID)
		if final {
			c.mu.Lock()
			c.done[paymentID] = res
			c.mu.Unlock()
		}
		return res, nil
	})
	return v.(Result)
}

// confirm reports whether the result is final: a success or a rejection from
// the API.
func (c *Confirmer) confirm(ctx context.Context, paymentID string) (Result, bool) {
	logger := util.LoggerFromContext(ctx)
	payment, err := c.payments.ConfirmPayment(ctx, paymentID)
	if err != nil {
		logger.Warn("payment confirmation failed", "payment_id", paymentID, "err", err)
		var apiErr *apiclient.APIError
		final := errors.As(err, &apiErr) && !errors.Is(err, apiclient.ErrSessionExpired)
		return Result{
			Outcome:   OutcomeFailed,
			PaymentID: paymentID,
			Message:   apiclient.MessageOr(err, msgConfirmFallback),
		}, final
	}
	logger.Info("payment confirmed", "payment_id", paymentID, "status", payment.Status)
	return Result{
		Outcome:   OutcomeSuccess,
		PaymentID: paymentID,
		Message:   MsgPaymentSucceeded,
		Payment:   &payment,
	}, true
}

func (c *Confirmer) lookup(paymentID string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.done[paymentID]
	return res, ok
}
