package state

import (
	"slices"

	"musicworks/pkg/domain"
)

func cloneWork(w domain.Work) domain.Work {
	w.Authors = slices.Clone(w.Authors)
	w.CoAuthors = slices.Clone(w.CoAuthors)
	w.Files = slices.Clone(w.Files)
	return w
}

func cloneWorks(in []domain.Work) []domain.Work {
	if in == nil {
		return nil
	}
	out := make([]domain.Work, len(in))
	for i, w := range in {
		out[i] = cloneWork(w)
	}
	return out
}

func cloneWorkPtr(w *domain.Work) *domain.Work {
	if w == nil {
		return nil
	}
	c := cloneWork(*w)
	return &c
}

func cloneRequest(r domain.AuthorizationRequest) domain.AuthorizationRequest {
	r.ProofFiles = slices.Clone(r.ProofFiles)
	r.Work = cloneWorkPtr(r.Work)
	return r
}

func clonePaymentPtr(p *domain.Payment) *domain.Payment {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneAnalytics(a *domain.Analytics) *domain.Analytics {
	if a == nil {
		return nil
	}
	c := *a
	if a.WorksByStatus != nil {
		c.WorksByStatus = make(map[domain.WorkStatus]int64, len(a.WorksByStatus))
		for k, v := range a.WorksByStatus {
			c.WorksByStatus[k] = v
		}
	}
	return &c
}

func cloneUserPtr(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
