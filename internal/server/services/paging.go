package services

import (
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/dmitrijs2005/microblog/internal/server/validation"
)

// pager turns caller-supplied page parameters into a models.Page.
// Page numbers start at 1; a non-positive size selects the default and an
// oversized one is clamped to the maximum.
type pager struct {
	defaultSize int
	maxSize     int
}

func newPager(cfg *config.Config) pager {
	p := pager{defaultSize: cfg.DefaultPageSize, maxSize: cfg.MaxPageSize}
	if p.maxSize <= 0 {
		p.maxSize = 100
	}
	if p.defaultSize <= 0 || p.defaultSize > p.maxSize {
		p.defaultSize = p.maxSize
	}
	return p
}

func (p pager) page(number, size int) (models.Page, error) {
	if number < 1 {
		return models.Page{}, validation.New("page", "must be greater than or equal to 1")
	}
	switch {
	case size <= 0:
		size = p.defaultSize
	case size > p.maxSize:
		size = p.maxSize
	}
	return models.Page{Number: number, Size: size}, nil
}
