// Package paging implements offset pagination for list endpoints.
package paging

const (
	DefaultPage = 0
	DefaultSize = 10
	MaxSize     = 100
)

// Params are the normalized paging inputs of a list request.
type Params struct {
	Page      int    `form:"page"`
	Size      int    `form:"size"`
	Sort      string `form:"sort"`
	Direction string `form:"direction"`
}

// Normalize clamps the params into their allowed ranges.
func (p *Params) Normalize() {
	if p.Page < 0 {
		p.Page = DefaultPage
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	if p.Direction != "asc" && p.Direction != "desc" {
		p.Direction = "desc"
	}
}

// Offset returns the row offset for the current page.
func (p *Params) Offset() int {
	return p.Page * p.Size
}

// Result is one page of items plus the totals needed to render pagination.
type Result[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewResult assembles a page from its content and the total row count.
func NewResult[T any](content []T, p *Params, total int64) *Result[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if p.Size > 0 {
		totalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return &Result[T]{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         p.Page == 0,
		Last:          p.Page >= totalPages-1,
	}
}
