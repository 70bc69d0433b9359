// Package pagination reads page/limit query parameters for the staff list
// endpoints and describes the page that was returned.
package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta is returned next to every list so the admin tables can page.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta"`
}

// GetParams reads ?page= and ?limit=. Garbage falls back to the defaults.
func GetParams(c *fiber.Ctx) *Params {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = DefaultLimit
	}
	return New(page, limit)
}

// New clamps page to >= 1 and limit to [1, MaxLimit]; a non-positive limit
// means DefaultLimit.
func New(page, limit int) *Params {
	page = max(page, 1)
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return &Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func NewMeta(p *Params, total int64) *Meta {
	limit := int64(p.Limit)
	pages := int((total + limit - 1) / limit)
	return &Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}

func NewResponse(data any, p *Params, total int64) *Response {
	return &Response{Data: data, Meta: NewMeta(p, total)}
}
