package state

import (
	"context"
	"slices"

	"musicworks/internal/apiclient"
	"musicworks/internal/paymentclient"
	"musicworks/pkg/domain"
)

// PaymentService is the subset of paymentclient.Client the payment store needs.
type PaymentService interface {
	Create(ctx context.Context, req paymentclient.CreateRequest) (paymentclient.CreateResponse, error)
	Confirm(ctx context.Context, paymentID string) (domain.Payment, error)
	History(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Payment], error)
	Get(ctx context.Context, id string) (domain.Payment, error)
}

type PaymentState struct {
	Payments       []domain.Payment
	CurrentPayment *domain.Payment
	Pagination     domain.Pagination
	IsLoading      bool
	Error          string
}

const (
	msgCreatePayment  = "Failed to create payment"
	msgFetchPayments  = "Failed to fetch payments"
	msgFetchPayment   = "Failed to fetch payment"
	msgConfirmPayment = "Failed to confirm payment"
)

// PaymentStore caches the payment history and the payment being viewed.
type PaymentStore struct {
	*hub[PaymentState]
	svc PaymentService
}

func NewPaymentStore(svc PaymentService) *PaymentStore {
	initial := PaymentState{Pagination: domain.DefaultPagination()}
	return &PaymentStore{
		hub: newHub(initial, clonePaymentState, func(s *PaymentState, v bool) { s.IsLoading = v }),
		svc: svc,
	}
}

func clonePaymentState(s PaymentState) PaymentState {
	s.Payments = slices.Clone(s.Payments)
	s.CurrentPayment = clonePaymentPtr(s.CurrentPayment)
	return s
}

func clearPaymentError(st *PaymentState) { st.Error = "" }

// CreatePayment starts a checkout and returns the provider URL to open.
func (s *PaymentStore) CreatePayment(ctx context.Context, req paymentclient.CreateRequest) (string, error) {
	s.begin("", clearPaymentError)
	resp, err := s.svc.Create(ctx, req)
	s.finish(ctx, "", 0, func(st *PaymentState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgCreatePayment)
		}
	})
	if err != nil {
		return "", err
	}
	return resp.CheckoutURL, nil
}

func (s *PaymentStore) FetchPayments(ctx context.Context, params domain.PaginationParams) {
	ticket := s.begin("payments", clearPaymentError)
	page, err := s.svc.History(ctx, params)
	s.finish(ctx, "payments", ticket, func(st *PaymentState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchPayments)
			return
		}
		checkPage(ctx, "payments", page)
		st.Payments = page.Data
		st.Pagination = page.Pagination
	})
}

func (s *PaymentStore) FetchPayment(ctx context.Context, id string) {
	ticket := s.begin("payment", clearPaymentError)
	payment, err := s.svc.Get(ctx, id)
	s.finish(ctx, "payment", ticket, func(st *PaymentState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchPayment)
			return
		}
		st.CurrentPayment = &payment
	})
}

// ConfirmPayment settles paymentID and replaces it wherever it is held.
func (s *PaymentStore) ConfirmPayment(ctx context.Context, paymentID string) (domain.Payment, error) {
	s.begin("", clearPaymentError)
	payment, err := s.svc.Confirm(ctx, paymentID)
	s.finish(ctx, "", 0, func(st *PaymentState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgConfirmPayment)
			return
		}
		for i := range st.Payments {
			if st.Payments[i].ID == paymentID {
				st.Payments[i] = payment
			}
		}
		if st.CurrentPayment != nil && st.CurrentPayment.ID == paymentID {
			st.CurrentPayment = &payment
		}
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return payment, nil
}

func (s *PaymentStore) ClearError() {
	s.update(clearPaymentError)
}
