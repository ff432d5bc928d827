package scraper

import (
	"context"

	"nftmaker/pkg/pokeapi"
)

// EntityFetcher defines the catalog operations the driver needs
type EntityFetcher interface {
	FetchEntity(ctx context.Context, id int) (*pokeapi.EntityRecord, error)
}

// DocumentStore persists serialized metadata documents by file number
type DocumentStore interface {
	Write(n int, data []byte) (string, error)
}

// Locker is implemented by stores that can guard their output against a
// concurrent run
type Locker interface {
	Lock() error
	Unlock() error
}
