package model

import "github.com/google/uuid"

// PatchTile returns a copy of c where the tile with the given id carries data.
// Layout hints of that tile and every other tile, including order, are kept.
// An unknown id returns c unchanged.
func PatchTile(c Config, id uuid.UUID, data TileData) Config {
	idx := tileIndex(c, id)
	if idx < 0 {
		return c
	}
	out := c.Clone()
	out.Tiles[idx].Data = data
	return out
}

// PatchSecrets returns a copy of c with its secrets replaced wholesale.
func PatchSecrets(c Config, s Secrets) Config {
	out := c.Clone()
	out.Secrets = Secrets{OWMAPIKey: cloneString(s.OWMAPIKey)}
	return out
}

// AddTile appends a tile holding data with a freshly generated id.
func AddTile(c Config, data TileData) (Config, uuid.UUID) {
	id := uuid.New()
	out := c.Clone()
	out.Tiles = append(out.Tiles, Tile{ID: id, Data: data})
	return out, id
}

// DeleteTile returns a copy of c without the tile with the given id.
// An unknown id returns c unchanged.
func DeleteTile(c Config, id uuid.UUID) Config {
	idx := tileIndex(c, id)
	if idx < 0 {
		return c
	}
	out := c.Clone()
	out.Tiles = append(out.Tiles[:idx], out.Tiles[idx+1:]...)
	return out
}

func tileIndex(c Config, id uuid.UUID) int {
	for i, t := range c.Tiles {
		if t.ID == id {
			return i
		}
	}
	return -1
}
