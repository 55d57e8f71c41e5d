package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"musicworks/pkg/domain"
)

type pageFlags struct {
	page      int
	limit     int
	sortBy    string
	sortOrder string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", domain.DefaultPageLimit, "results per page")
	cmd.Flags().StringVar(&f.sortBy, "sort-by", "", "field to sort by")
	cmd.Flags().StringVar(&f.sortOrder, "sort-order", "", "asc or desc")
}

func (f *pageFlags) params() (domain.PaginationParams, error) {
	if f.page < 1 {
		return domain.PaginationParams{}, fmt.Errorf("--page must be >= 1")
	}
	if f.limit < 1 {
		return domain.PaginationParams{}, fmt.Errorf("--limit must be >= 1")
	}
	order := domain.SortOrder(strings.ToLower(strings.TrimSpace(f.sortOrder)))
	switch order {
	case "", domain.SortAsc, domain.SortDesc:
	default:
		return domain.PaginationParams{}, fmt.Errorf("--sort-order must be asc or desc")
	}
	return domain.PaginationParams{
		Page:      f.page,
		Limit:     f.limit,
		SortBy:    strings.TrimSpace(f.sortBy),
		SortOrder: order,
	}, nil
}
