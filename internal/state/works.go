package state

import (
	"context"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

// WorkService is the subset of workclient.Client the work store needs.
type WorkService interface {
	Create(ctx context.Context, form *apiclient.Multipart) (domain.Work, error)
	List(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Work], error)
	Get(ctx context.Context, id string) (domain.Work, error)
	Update(ctx context.Context, id string, update domain.WorkUpdate) (domain.Work, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filters domain.SearchFilters, params domain.PaginationParams) (domain.Page[domain.Work], error)
}

// WorkState is the observable state of a WorkStore.
type WorkState struct {
	Works            []domain.Work
	CurrentWork      *domain.Work
	SearchResults    []domain.Work
	// Pagination describes Works; SearchPagination describes SearchResults.
	Pagination       domain.Pagination
	SearchPagination domain.Pagination
	Filters          domain.SearchFilters
	IsLoading        bool
	Error            string
}

const (
	msgFetchWorks  = "Failed to fetch works"
	msgFetchWork   = "Failed to fetch work"
	msgCreateWork  = "Failed to create work"
	msgUpdateWork  = "Failed to update work"
	msgDeleteWork  = "Failed to delete work"
	msgSearchWorks = "Failed to search works"
)

// WorkStore caches the user's works, the open work and search results.
type WorkStore struct {
	*hub[WorkState]
	svc WorkService
}

func NewWorkStore(svc WorkService) *WorkStore {
	initial := WorkState{
		Pagination:       domain.DefaultPagination(),
		SearchPagination: domain.DefaultPagination(),
	}
	return &WorkStore{
		hub: newHub(initial, cloneWorkState, func(s *WorkState, v bool) { s.IsLoading = v }),
		svc: svc,
	}
}

func cloneWorkState(s WorkState) WorkState {
	s.Works = cloneWorks(s.Works)
	s.SearchResults = cloneWorks(s.SearchResults)
	s.CurrentWork = cloneWorkPtr(s.CurrentWork)
	return s
}

func clearWorkError(st *WorkState) { st.Error = "" }

func (s *WorkStore) FetchWorks(ctx context.Context, params domain.PaginationParams) {
	ticket := s.begin("works", clearWorkError)
	page, err := s.svc.List(ctx, params)
	s.finish(ctx, "works", ticket, func(st *WorkState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchWorks)
			return
		}
		checkPage(ctx, "works", page)
		st.Works = page.Data
		st.Pagination = page.Pagination
	})
}

func (s *WorkStore) FetchWork(ctx context.Context, id string) {
	ticket := s.begin("work", clearWorkError)
	work, err := s.svc.Get(ctx, id)
	s.finish(ctx, "work", ticket, func(st *WorkState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgFetchWork)
			return
		}
		st.CurrentWork = &work
	})
}

// CreateWork submits form and prepends the created work.
func (s *WorkStore) CreateWork(ctx context.Context, form *apiclient.Multipart) (domain.Work, error) {
	s.begin("", clearWorkError)
	work, err := s.svc.Create(ctx, form)
	s.finish(ctx, "", 0, func(st *WorkState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgCreateWork)
			return
		}
		st.Works = append([]domain.Work{work}, st.Works...)
	})
	if err != nil {
		return domain.Work{}, err
	}
	return cloneWork(work), nil
}

func (s *WorkStore) UpdateWork(ctx context.Context, id string, update domain.WorkUpdate) error {
	s.begin("", clearWorkError)
	work, err := s.svc.Update(ctx, id, update)
	s.finish(ctx, "", 0, func(st *WorkState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgUpdateWork)
			return
		}
		for i := range st.Works {
			if st.Works[i].ID == id {
				st.Works[i] = work
			}
		}
		if st.CurrentWork != nil && st.CurrentWork.ID == id {
			st.CurrentWork = &work
		}
	})
	return err
}

func (s *WorkStore) DeleteWork(ctx context.Context, id string) error {
	s.begin("", clearWorkError)
	err := s.svc.Delete(ctx, id)
	s.finish(ctx, "", 0, func(st *WorkState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgDeleteWork)
			return
		}
		kept := st.Works[:0:0]
		for _, w := range st.Works {
			if w.ID != id {
				kept = append(kept, w)
			}
		}
		st.Works = kept
		if st.CurrentWork != nil && st.CurrentWork.ID == id {
			st.CurrentWork = nil
		}
	})
	return err
}

// SearchWorks records filters and replaces the search results.
func (s *WorkStore) SearchWorks(ctx context.Context, filters domain.SearchFilters, params domain.PaginationParams) {
	ticket := s.begin("search", func(st *WorkState) {
		st.Error = ""
		st.Filters = filters
	})
	page, err := s.svc.Search(ctx, filters, params)
	s.finish(ctx, "search", ticket, func(st *WorkState) {
		if err != nil {
			st.Error = apiclient.MessageOr(err, msgSearchWorks)
			return
		}
		checkPage(ctx, "search", page)
		st.SearchResults = page.Data
		st.SearchPagination = page.Pagination
	})
}

func (s *WorkStore) SetFilters(filters domain.SearchFilters) {
	s.update(func(st *WorkState) { st.Filters = filters })
}

func (s *WorkStore) ClearCurrentWork() {
	s.update(func(st *WorkState) { st.CurrentWork = nil })
}

func (s *WorkStore) ClearError() {
	s.update(func(st *WorkState) { st.Error = "" })
}
