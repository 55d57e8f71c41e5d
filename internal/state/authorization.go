package state

import (
	"context"

	"musicworks/internal/apiclient"
	"musicworks/internal/authzclient"
	"musicworks/pkg/domain"
)

// AuthorizationService is the subset of authzclient.Client the store needs.
type AuthorizationService interface {
	Submit(ctx context.Context, req authzclient.SubmitRequest) (domain.AuthorizationRequest, error)
	List(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.AuthorizationRequest], error)
	Approve(ctx context.Context, id string) (domain.AuthorizationRequest, error)
	Reject(ctx context.Context, id string) (domain.AuthorizationRequest, error)
}

type AuthorizationState struct {
	Requests   []domain.AuthorizationRequest
	Pagination domain.Pagination
	IsLoading  bool
	Error      string
}

const (
	msgFetchRequests = "Failed to fetch authorization requests"
	msgSubmitRequest = "Failed to submit authorization request"
	msgApproveReq    = "Failed to approve authorization request"
	msgRejectReq     = "Failed to reject authorization request"
)

// AuthorizationStore tracks exclusivity and additional-rights requests.
type AuthorizationStore struct {
	*hub[AuthorizationState]
	svc AuthorizationService
}

func NewAuthorizationStore(svc AuthorizationService) *AuthorizationStore {
	initial := AuthorizationState{Pagination: domain.DefaultPagination()}
	return &AuthorizationStore{
		hub: newHub(initial, cloneAuthorizationState, func(s *AuthorizationState, v bool) { s.IsLoading = v }),
		svc: svc,
	}
}

func cloneAuthorizationState(s AuthorizationState) AuthorizationState {
	if s.Requests != nil {
		out := make([]domain.AuthorizationRequest, len(s.Requests))
		for i, r := range s.Requests {
			out[i] = cloneRequest(r)
		}
		s.Requests = out
	}
	return s
}

func clearAuthorizationError(st *AuthorizationState) { st.Error = "" }

func (s *AuthorizationStore) FetchRequests(ctx context.Context, params domain.PaginationParams) {
	ticket := s.begin("requests", clearAuthorizationError)
	page, err := s.svc.List(ctx, params)
	s.finish(ctx, "requests", ticket, func(st *AuthorizationState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchRequests)
			return
		}
		checkPage(ctx, "requests", page)
		st.Requests = page.Data
		st.Pagination = page.Pagination
	})
}

// Submit files a request and prepends it.
func (s *AuthorizationStore) Submit(ctx context.Context, req authzclient.SubmitRequest) (domain.AuthorizationRequest, error) {
	s.begin("", clearAuthorizationError)
	created, err := s.svc.Submit(ctx, req)
	s.finish(ctx, "", 0, func(st *AuthorizationState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgSubmitRequest)
			return
		}
		st.Requests = append([]domain.AuthorizationRequest{created}, st.Requests...)
	})
	if err != nil {
		return domain.AuthorizationRequest{}, err
	}
	return cloneRequest(created), nil
}

func (s *AuthorizationStore) Approve(ctx context.Context, id string) error {
	return s.decide(ctx, id, s.svc.Approve, msgApproveReq)
}

func (s *AuthorizationStore) Reject(ctx context.Context, id string) error {
	return s.decide(ctx, id, s.svc.Reject, msgRejectReq)
}

func (s *AuthorizationStore) decide(
	ctx context.Context,
	id string,
	call func(context.Context, string) (domain.AuthorizationRequest, error),
	fallback string,
) error {
	s.begin("", clearAuthorizationError)
	updated, err := call(ctx, id)
	s.finish(ctx, "", 0, func(st *AuthorizationState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, fallback)
			return
		}
		for i := range st.Requests {
			if st.Requests[i].ID == id {
				st.Requests[i] = updated
			}
		}
	})
	return err
}

func (s *AuthorizationStore) ClearError() {
	s.update(clearAuthorizationError)
}
