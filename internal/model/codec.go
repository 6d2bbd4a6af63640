package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// tileJSON is the wire shape of a Tile. Optional layout hints are omitted
// when absent.
type tileJSON struct {
	ID     uuid.UUID       `json:"id"`
	Row    *uint32         `json:"row,omitempty"`
	Col    *uint32         `json:"col,omitempty"`
	Width  *uint32         `json:"width,omitempty"`
	Height *uint32         `json:"height,omitempty"`
	Data   json.RawMessage `json:"data"`
}

type clockJSON struct {
	Type Kind `json:"type"`
}

type weatherJSON struct {
	Type       Kind   `json:"type"`
	LocationID string `json:"location_id"`
}

type noteJSON struct {
	Type Kind   `json:"type"`
	Text string `json:"text"`
}

// MarshalJSON emits an empty array rather than null for a nil tile list.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	p := plain(c)
	if p.Tiles == nil {
		p.Tiles = []Tile{}
	}
	return json.Marshal(p)
}

// MarshalJSON encodes the tile with its data tagged by "type".
func (t Tile) MarshalJSON() ([]byte, error) {
	data, err := marshalTileData(t.Data)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", t.ID, err)
	}
	return json.Marshal(tileJSON{
		ID:     t.ID,
		Row:    t.Row,
		Col:    t.Col,
		Width:  t.Width,
		Height: t.Height,
		Data:   data,
	})
}

// UnmarshalJSON decodes a tile, dispatching its data on the "type" tag.
func (t *Tile) UnmarshalJSON(b []byte) error {
	var w tileJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.Data) == 0 || string(w.Data) == "null" {
		return fmt.Errorf("tile %s: data is required", w.ID)
	}
	data, err := unmarshalTileData(w.Data)
	if err != nil {
		return fmt.Errorf("tile %s: %w", w.ID, err)
	}
	*t = Tile{
		ID:     w.ID,
		Row:    w.Row,
		Col:    w.Col,
		Width:  w.Width,
		Height: w.Height,
		Data:   data,
	}
	return nil
}

func marshalTileData(d TileData) ([]byte, error) {
	switch d := d.(type) {
	case Clock:
		return json.Marshal(clockJSON{Type: KindClock})
	case Weather:
		return json.Marshal(weatherJSON{Type: KindWeather, LocationID: d.LocationID})
	case Note:
		return json.Marshal(noteJSON{Type: KindNote, Text: d.Text})
	case nil:
		return nil, errors.New("data is required")
	default:
		return nil, fmt.Errorf("unsupported tile data %T", d)
	}
}

func unmarshalTileData(b []byte) (TileData, error) {
	var tag struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(b, &tag); err != nil {
		return nil, err
	}
	switch tag.Type {
	case KindClock:
		return Clock{}, nil
	case KindWeather:
		var w weatherJSON
		if err := json.Unmarshal(b, &w); err != nil {
			return nil, err
		}
		return Weather{LocationID: w.LocationID}, nil
	case KindNote:
		var n noteJSON
		if err := json.Unmarshal(b, &n); err != nil {
			return nil, err
		}
		return Note{Text: n.Text}, nil
	case "":
		return nil, errors.New(`data is missing its "type"`)
	default:
		return nil, fmt.Errorf("unknown tile type %q", tag.Type)
	}
}

// Serialize returns the canonical compact JSON form of c.
func Serialize(c Config) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("serializing config: %w", err)
	}
	return data, nil
}

// SerializeIndent returns c as indented JSON, the form shown in editors.
func SerializeIndent(c Config) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing config: %w", err)
	}
	return data, nil
}

// ParseError describes why a user-edited document was rejected. Line and
// Column are 1-based and zero when the problem is not tied to a position.
type ParseError struct {
	Line    int
	Column  int
	Message string
	Issues  []Issue
}

// Issue is a single problem found at a location in the document.
type Issue struct {
	Path    string // JSON pointer, e.g. "/tiles/0/data"
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// Parse decodes a user-edited document. Every failure is a *ParseError whose
// message is meant to be shown next to the editor.
func Parse(text []byte) (Config, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Config{}, decodeError(text, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		line, col := position(text, int(dec.InputOffset()))
		return Config{}, &ParseError{Line: line, Column: col, Message: "unexpected data after the document"}
	}

	issues, err := validateSchema(raw)
	if err != nil {
		return Config{}, &ParseError{Message: err.Error()}
	}
	if len(issues) > 0 {
		return Config{}, issuesError(issues)
	}

	var c Config
	if err := json.Unmarshal(text, &c); err != nil {
		return Config{}, decodeError(text, err)
	}
	if c.Tiles == nil {
		c.Tiles = []Tile{}
	}

	if err := Validate(c); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			issues := make([]Issue, len(ve.Errors))
			for i, fe := range ve.Errors {
				issues[i] = Issue{Path: fe.Field, Message: fe.Message}
			}
			return Config{}, issuesError(issues)
		}
		return Config{}, &ParseError{Message: err.Error()}
	}
	return c, nil
}

func issuesError(issues []Issue) *ParseError {
	parts := make([]string, len(issues))
	for i, is := range issues {
		where := is.Path
		if where == "" {
			where = "document root"
		}
		parts[i] = "at " + where + ": " + is.Message
	}
	return &ParseError{Message: strings.Join(parts, "; "), Issues: issues}
}

func decodeError(text []byte, err error) *ParseError {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		line, col := position(text, int(syn.Offset))
		return &ParseError{Line: line, Column: col, Message: syn.Error()}
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		line, col := position(text, int(typ.Offset))
		msg := fmt.Sprintf("expected %s, got %s", typ.Type, typ.Value)
		if typ.Field != "" {
			msg = fmt.Sprintf("%s: %s", typ.Field, msg)
		}
		return &ParseError{Line: line, Column: col, Message: msg}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		line, col := position(text, len(text))
		if len(bytes.TrimSpace(text)) == 0 {
			return &ParseError{Message: "document is empty"}
		}
		return &ParseError{Line: line, Column: col, Message: "unexpected end of document"}
	}
	return &ParseError{Message: err.Error()}
}

// position converts a byte offset into a 1-based line and column.
func position(text []byte, offset int) (line, col int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = offset - bytes.LastIndexByte(before, '\n')
	return line, col
}
