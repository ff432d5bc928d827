// Package metadata turns catalog entity records into NFT metadata documents.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode"
	"unicode/utf8"

	"nftmaker/pkg/errors"
	"nftmaker/pkg/pokeapi"
	"nftmaker/pkg/rarity"
)

// Trait names of the two attributes appended after the statistics
const (
	TraitBaseExperience = "Base Experience"
	TraitRarity         = "Rarity"
)

// DescriptionTemplate is filled with the display name
const DescriptionTemplate = "An NFT representing the Pokemon %s."

// Document is one generated metadata file. Field order is the serialized key order.
type Document struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CopyNumber  int         `json:"copy_number"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// Attribute is a single trait. Value holds an int for numeric traits and a
// string for the rarity label.
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Generate builds the document for one copy of record. It does not modify
// record and returns a missing field error when a required path is absent.
func Generate(record *pokeapi.EntityRecord, copyNumber int) (*Document, error) {
	if record == nil {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, "record is nil")
	}
	if copyNumber < 0 {
		return nil, errors.New(errors.ErrorTypeInvalidInput, 0, fmt.Sprintf("copy number %d is negative", copyNumber))
	}

	image, err := record.ArtworkURL()
	if err != nil {
		return nil, err
	}

	attributes := make([]Attribute, 0, len(record.Stats)+2)
	for _, stat := range record.Stats {
		name, err := stat.Name()
		if err != nil {
			return nil, err
		}
		value, err := stat.Value()
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, Attribute{TraitType: Capitalize(name), Value: value})
	}

	baseExperience := record.BaseExperienceOrZero()
	attributes = append(attributes,
		Attribute{TraitType: TraitBaseExperience, Value: baseExperience},
		Attribute{TraitType: TraitRarity, Value: rarity.Classify(baseExperience).String()},
	)

	displayName := Capitalize(record.Name)
	return &Document{
		Name:        displayName,
		Description: fmt.Sprintf(DescriptionTemplate, displayName),
		CopyNumber:  copyNumber,
		Image:       image,
		Attributes:  attributes,
	}, nil
}

// GenerateCopies builds documents for copies 0..copies-1. Either every copy
// is returned or none is.
func GenerateCopies(record *pokeapi.EntityRecord, copies int) ([]*Document, error) {
	docs := make([]*Document, 0, copies)
	for i := 0; i < copies; i++ {
		doc, err := Generate(record, i)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Marshal serializes doc as indented JSON with a trailing newline
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode metadata document: %w", err)
	}
	return buf.Bytes(), nil
}
