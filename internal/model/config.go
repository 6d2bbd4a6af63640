// Package model defines the dashboard settings document and the pure
// transformations applied to it. Nothing in this package performs I/O.
package model

import (
	"github.com/google/uuid"
)

// Config is the whole user settings document.
type Config struct {
	Secrets Secrets `json:"secrets"`
	// Tiles are kept in display order.
	Tiles []Tile `json:"tiles"`
}

// Secrets holds per-user credentials needed by widgets.
type Secrets struct {
	OWMAPIKey *string `json:"owm_api_key,omitempty"`
}

// Tile is one widget's placement and configuration.
type Tile struct {
	ID     uuid.UUID
	Row    *uint32
	Col    *uint32
	Width  *uint32
	Height *uint32
	Data   TileData
}

// Kind is the discriminator written to the "type" field of tile data.
type Kind string

const (
	KindClock   Kind = "Clock"
	KindWeather Kind = "Weather"
	KindNote    Kind = "Note"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case KindClock, KindWeather, KindNote:
		return true
	}
	return false
}

// TileData is the closed set of widget payloads: Clock, Weather and Note.
// The unexported method keeps other packages from adding variants.
type TileData interface {
	Kind() Kind
	isTileData()
}

// Clock shows the current time. It has no settings.
type Clock struct{}

// Weather shows conditions for an OpenWeatherMap location.
type Weather struct {
	LocationID string
}

// Note is a free-text note.
type Note struct {
	Text string
}

func (Clock) Kind() Kind   { return KindClock }
func (Weather) Kind() Kind { return KindWeather }
func (Note) Kind() Kind    { return KindNote }

func (Clock) isTileData()   {}
func (Weather) isTileData() {}
func (Note) isTileData()    {}

// Default returns an empty document: no tiles and no secrets.
func Default() Config {
	return Config{Tiles: []Tile{}}
}

// Clone returns a deep copy of c. Snapshots handed to observers are clones so
// that nothing outside the owner can alias its state.
func (c Config) Clone() Config {
	out := Config{
		Secrets: Secrets{OWMAPIKey: cloneString(c.Secrets.OWMAPIKey)},
		Tiles:   make([]Tile, len(c.Tiles)),
	}
	for i, t := range c.Tiles {
		out.Tiles[i] = t.Clone()
	}
	return out
}

// Clone returns a copy of t with its own layout hint pointers.
func (t Tile) Clone() Tile {
	return Tile{
		ID:     t.ID,
		Row:    cloneUint(t.Row),
		Col:    cloneUint(t.Col),
		Width:  cloneUint(t.Width),
		Height: cloneUint(t.Height),
		Data:   t.Data,
	}
}

// Size returns the effective width and height; absent hints count as 1.
func (t Tile) Size() (width, height uint32) {
	width, height = 1, 1
	if t.Width != nil {
		width = *t.Width
	}
	if t.Height != nil {
		height = *t.Height
	}
	return width, height
}

// FindTile returns the tile with the given id.
func (c Config) FindTile(id uuid.UUID) (Tile, bool) {
	for _, t := range c.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

// Uint32 returns a pointer to v, for building layout hints.
func Uint32(v uint32) *uint32 { return &v }

// String returns a pointer to s, for building optional secrets.
func String(s string) *string { return &s }

func cloneUint(p *uint32) *uint32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
