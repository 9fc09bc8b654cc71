package models

// Page is a 1-based page request already clamped by the service layer.
type Page struct {
	Number int
	Size   int
}

// Limit is the SQL LIMIT for the page.
func (p Page) Limit() int { return p.Size }

// Offset is the SQL OFFSET for the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }
