package model

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

var (
	id0 = uuid.MustParse("00000000-0000-0000-0000-000000000000")
	id1 = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	id3 = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func sampleConfig() Config {
	return Config{
		Secrets: Secrets{OWMAPIKey: String("TEST_OWM_API_KEY")},
		Tiles: []Tile{
			{ID: id0, Data: Note{Text: ""}},
			{ID: id1, Row: Uint32(1), Col: Uint32(2), Width: Uint32(3), Height: Uint32(4), Data: Weather{LocationID: "1234567"}},
			{ID: id3, Data: Clock{}},
		},
	}
}

const sampleJSON = `{"secrets":{"owm_api_key":"TEST_OWM_API_KEY"},"tiles":[` +
	`{"id":"00000000-0000-0000-0000-000000000000","data":{"type":"Note","text":""}},` +
	`{"id":"11111111-1111-1111-1111-111111111111","row":1,"col":2,"width":3,"height":4,"data":{"type":"Weather","location_id":"1234567"}},` +
	`{"id":"33333333-3333-3333-3333-333333333333","data":{"type":"Clock"}}]}`

func TestKind_IsValid(t *testing.T) {
	for _, tc := range []struct {
		kind Kind
		want bool
	}{
		{KindClock, true},
		{KindWeather, true},
		{KindNote, true},
		{Kind(""), false},
		{Kind("note"), false},
	} {
		if got := tc.kind.IsValid(); got != tc.want {
			t.Errorf("Kind(%q).IsValid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestTileData_Kind(t *testing.T) {
	for _, tc := range []struct {
		data TileData
		want Kind
	}{
		{Clock{}, KindClock},
		{Weather{LocationID: "x"}, KindWeather},
		{Note{Text: "x"}, KindNote},
	} {
		if got := tc.data.Kind(); got != tc.want {
			t.Errorf("%T.Kind() = %q, want %q", tc.data, got, tc.want)
		}
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Tiles == nil || len(c.Tiles) != 0 {
		t.Fatalf("Default().Tiles = %#v, want empty non-nil slice", c.Tiles)
	}
	if c.Secrets.OWMAPIKey != nil {
		t.Fatalf("Default().Secrets.OWMAPIKey = %q, want nil", *c.Secrets.OWMAPIKey)
	}
	data, err := Serialize(c)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if string(data) != `{"secrets":{},"tiles":[]}` {
		t.Fatalf("Serialize(Default()) = %s", data)
	}
}

func TestTile_Size(t *testing.T) {
	for _, tc := range []struct {
		name  string
		tile  Tile
		wantW uint32
		wantH uint32
	}{
		{"NoHints", Tile{Data: Clock{}}, 1, 1},
		{"WidthOnly", Tile{Width: Uint32(3), Data: Clock{}}, 3, 1},
		{"Both", Tile{Width: Uint32(2), Height: Uint32(4), Data: Clock{}}, 2, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, h := tc.tile.Size()
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("Size() = (%d, %d), want (%d, %d)", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	c := sampleConfig()
	cp := c.Clone()

	*cp.Secrets.OWMAPIKey = "changed"
	*cp.Tiles[1].Row = 9
	cp.Tiles[0].Data = Note{Text: "changed"}

	if *c.Secrets.OWMAPIKey != "TEST_OWM_API_KEY" {
		t.Errorf("clone aliased secrets")
	}
	if *c.Tiles[1].Row != 1 {
		t.Errorf("clone aliased layout hints")
	}
	if c.Tiles[0].Data != (Note{Text: ""}) {
		t.Errorf("clone aliased tile data")
	}
}

func TestFindTile(t *testing.T) {
	c := sampleConfig()
	tile, ok := c.FindTile(id1)
	if !ok {
		t.Fatal("expected to find tile")
	}
	if tile.Data != (Weather{LocationID: "1234567"}) {
		t.Errorf("got data %#v", tile.Data)
	}
	if _, ok := c.FindTile(uuid.New()); ok {
		t.Error("expected unknown id to be missing")
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{"Valid", sampleConfig(), ""},
		{
			name:      "DuplicateID",
			cfg:       Config{Tiles: []Tile{{ID: id0, Data: Clock{}}, {ID: id0, Data: Clock{}}}},
			wantField: "/tiles/1/id",
		},
		{
			name:      "ZeroHeight",
			cfg:       Config{Tiles: []Tile{{ID: id0, Height: Uint32(0), Data: Clock{}}}},
			wantField: "/tiles/0/height",
		},
		{
			name:      "MissingData",
			cfg:       Config{Tiles: []Tile{{ID: id0}}},
			wantField: "/tiles/0/data",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cfg)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Errors[0].Field != tc.wantField {
				t.Errorf("field = %q, want %q", ve.Errors[0].Field, tc.wantField)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{
		{Field: "/tiles/0/id", Message: "duplicate"},
		{Field: "/tiles/1/row", Message: "must be a positive integer"},
	}}
	want := "validation failed: /tiles/0/id: duplicate; /tiles/1/row: must be a positive integer"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !ve.HasErrors() {
		t.Error("HasErrors() = false")
	}
	if (&ValidationError{}).HasErrors() {
		t.Error("empty ValidationError should have no errors")
	}
}

func TestStringHelpers(t *testing.T) {
	if s := String("k"); s == nil || *s != "k" {
		t.Errorf("String(\"k\") = %v", s)
	}
	if u := Uint32(7); u == nil || *u != 7 {
		t.Errorf("Uint32(7) = %v", u)
	}
	if !strings.Contains(KindNote.String(), "Note") {
		t.Errorf("KindNote.String() = %q", KindNote.String())
	}
	if !reflect.DeepEqual(Default(), Config{Tiles: []Tile{}}) {
		t.Error("Default() mismatch")
	}
}
