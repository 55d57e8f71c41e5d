package state

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

// AdminService is the subset of adminclient.Client the admin store needs.
type AdminService interface {
	Users(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.User], error)
	Works(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Work], error)
	Payments(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Payment], error)
	Analytics(ctx context.Context) (domain.Analytics, error)
}

type AdminState struct {
	Users          []domain.User
	Analytics      *domain.Analytics
	RecentWorks    []domain.Work
	RecentPayments []domain.Payment
	Pagination     domain.Pagination
	IsLoading      bool
	Error          string
}

const (
	msgFetchDashboard = "Failed to load dashboard"
	msgFetchUsers     = "Failed to fetch users"
)

// AdminStore backs the admin dashboard.
type AdminStore struct {
	*hub[AdminState]
	svc AdminService
}

func NewAdminStore(svc AdminService) *AdminStore {
	initial := AdminState{Pagination: domain.DefaultPagination()}
	return &AdminStore{
		hub: newHub(initial, cloneAdminState, func(s *AdminState, v bool) { s.IsLoading = v }),
		svc: svc,
	}
}

func cloneAdminState(s AdminState) AdminState {
	s.Users = slices.Clone(s.Users)
	s.Analytics = cloneAnalytics(s.Analytics)
	s.RecentWorks = cloneWorks(s.RecentWorks)
	s.RecentPayments = slices.Clone(s.RecentPayments)
	return s
}

func clearAdminError(st *AdminState) { st.Error = "" }

// FetchDashboard loads the latest works, payments and the analytics
// aggregate concurrently. Nothing is applied unless all three succeed.
func (s *AdminStore) FetchDashboard(ctx context.Context, limit int) {
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}
	params := domain.PaginationParams{Page: 1, Limit: limit, SortBy: "createdAt", SortOrder: domain.SortDesc}

	ticket := s.begin("dashboard", clearAdminError)
	var (
		works     domain.Page[domain.Work]
		payments  domain.Page[domain.Payment]
		analytics domain.Analytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		works, err = s.svc.Works(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.svc.Payments(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		analytics, err = s.svc.Analytics(gctx)
		return err
	})
	err := g.Wait()
	s.finish(ctx, "dashboard", ticket, func(st *AdminState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchDashboard)
			return
		}
		st.RecentWorks = works.Data
		st.RecentPayments = payments.Data
		st.Analytics = &analytics
	})
}

func (s *AdminStore) FetchUsers(ctx context.Context, params domain.PaginationParams) {
	ticket := s.begin("users", clearAdminError)
	page, err := s.svc.Users(ctx, params)
	s.finish(ctx, "users", ticket, func(st *AdminState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchUsers)
			return
		}
		checkPage(ctx, "users", page)
		st.Users = page.Data
		st.Pagination = page.Pagination
	})
}

func (s *AdminStore) ClearError() {
	s.update(clearAdminError)
}
