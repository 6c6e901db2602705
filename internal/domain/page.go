package domain

import (
	"context"
	"time"
)

// HomeSlug identifies the page created on first access.
const HomeSlug = "home"

// MaxTitleLength bounds page titles, in characters.
const MaxTitleLength = 256

type Page struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PageService interface {
	GetHome(ctx context.Context) (*PageState, error)
	UpdateTitle(ctx context.Context, pageID int64, title string) (*Page, error)
}
