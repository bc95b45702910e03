package domain

import "context"

// PageFetcher retrieves one page of a remote collection.
// Implementations normalize every accepted response shape into a Page;
// an unrecognized body yields an empty Page with LastPage == page.
type PageFetcher interface {
	FetchPage(ctx context.Context, filter Filter, page int) (Page, error)
}

// CatalogClient is the remote catalog API (implemented by catalog.Client)
type CatalogClient interface {
	PageFetcher

	// GetCategories returns all categories
	GetCategories(ctx context.Context) ([]Item, error)

	// GetGame returns the detail record of a game, including its embed URL
	GetGame(ctx context.Context, id ItemID) (*Item, error)
}

// CategoryCache holds the last category list fetched from the API
type CategoryCache interface {
	GetCategories() ([]Item, bool)
	SaveCategories(categories []Item) error
}

// Launcher opens a game URL outside the terminal
type Launcher interface {
	Launch(url string) error
}
