package filters

import (
	"errors"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Filters struct {
	Page         int      `schema:"page" validate:"omitempty,gte=1,lte=10000000"`
	PageSize     int      `schema:"page_size" validate:"omitempty,gte=1,lte=100"`
	Sort         string   `schema:"ordering"`
	SortSafelist []string `schema:"-"`
}

func (f *Filters) SortColumn() string {
	if f.Sort == "" && len(f.SortSafelist) > 0 {
		return f.SortSafelist[0]
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return safeValue
		}
	}
	panic(errors.New("Unknown sort column: " + f.Sort))
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

// ValidSort reports whether Sort names a column from SortSafelist.
func (f *Filters) ValidSort() bool {
	if f.Sort == "" {
		return true
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return true
		}
	}
	return false
}

func (f *Filters) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return f.PageSize
}

func (f *Filters) Offset() int {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// NextPage returns the number of the page following the current one, or 0
// when the current page is the last.
func (f *Filters) NextPage(total int) int {
	if f.Offset()+f.Limit() >= total {
		return 0
	}
	if f.Page <= 0 {
		return 2
	}
	return f.Page + 1
}
