package pokeapi

import (
	"nftmaker/pkg/errors"
)

// EntityRecord is the subset of a catalog entry that metadata generation reads.
// Optional and nested fields are pointers so that absence can be told apart
// from a zero value.
type EntityRecord struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	BaseExperience *int     `json:"base_experience"`
	Sprites        *Sprites `json:"sprites"`
	Stats          []Stat   `json:"stats"`
}

// Sprites holds the image references of an entity
type Sprites struct {
	FrontDefault *string       `json:"front_default"`
	Other        *OtherSprites `json:"other"`
}

// OtherSprites holds alternative artwork sets
type OtherSprites struct {
	OfficialArtwork *Artwork `json:"official-artwork"`
}

// Artwork is a single artwork set
type Artwork struct {
	FrontDefault *string `json:"front_default"`
	FrontShiny   *string `json:"front_shiny"`
}

// Stat is one base statistic of an entity
type Stat struct {
	BaseStat *int         `json:"base_stat"`
	Effort   int          `json:"effort"`
	Stat     *NamedAPIRef `json:"stat"`
}

// NamedAPIRef is the catalog's {name, url} reference object
type NamedAPIRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ArtworkPath is the dotted path of the official artwork URL
const ArtworkPath = "sprites.other.official-artwork.front_default"

// ArtworkURL returns the official artwork URL. A missing level anywhere along
// the path, or a null URL, is reported as a missing field error.
func (r *EntityRecord) ArtworkURL() (string, error) {
	switch {
	case r.Sprites == nil:
		return "", errors.MissingField("sprites")
	case r.Sprites.Other == nil:
		return "", errors.MissingField("sprites.other")
	case r.Sprites.Other.OfficialArtwork == nil:
		return "", errors.MissingField("sprites.other.official-artwork")
	case r.Sprites.Other.OfficialArtwork.FrontDefault == nil:
		return "", errors.MissingField(ArtworkPath)
	}
	return *r.Sprites.Other.OfficialArtwork.FrontDefault, nil
}

// BaseExperienceOrZero returns base_experience, treating absent or null as 0
func (r *EntityRecord) BaseExperienceOrZero() int {
	if r.BaseExperience == nil {
		return 0
	}
	return *r.BaseExperience
}

// Name returns the statistic's name or a missing field error
func (s Stat) Name() (string, error) {
	if s.Stat == nil || s.Stat.Name == "" {
		return "", errors.MissingField("stats[].stat.name")
	}
	return s.Stat.Name, nil
}

// Value returns the statistic's base value or a missing field error
func (s Stat) Value() (int, error) {
	if s.BaseStat == nil {
		return 0, errors.MissingField("stats[].base_stat")
	}
	return *s.BaseStat, nil
}
