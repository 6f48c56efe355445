package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultRoomType labels rooms the inventory returns without a type.
const DefaultRoomType = "Standart"

// ID accepts both JSON strings and JSON numbers; the inventory service is not
// consistent about which one it sends for hotel and room ids.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Hotel struct {
	ID      ID       `json:"hotelId"`
	Name    string   `json:"name"`
	City    *string  `json:"city,omitempty"`
	Address *string  `json:"address,omitempty"`
	Stars   *int     `json:"stars,omitempty"`
	Images  []string `json:"images,omitempty"`
	Rooms   []Room   `json:"rooms"`
}

// Room is immutable for one fetch cycle; every availability fetch builds new ones.
type Room struct {
	RoomID          ID       `json:"roomId"`
	RoomTypeName    *string  `json:"roomTypeName"`
	Title           string   `json:"title"`
	BasePrice       float64  `json:"basePrice"`
	Capacity        int      `json:"capacity"`
	IsAvailable     bool     `json:"isAvailable"`
	Images          []string `json:"images"`
	SpecialFeatures []string `json:"specialFeatures"`
}

// TypeName returns the room type, falling back to DefaultRoomType.
func (r Room) TypeName() string {
	if r.RoomTypeName == nil || strings.TrimSpace(*r.RoomTypeName) == "" {
		return DefaultRoomType
	}
	return *r.RoomTypeName
}

// RoomTypeGroup maps a room-type name to its single representative room.
// Types keep the order in which they were first seen.
type RoomTypeGroup struct {
	order []string
	rooms map[string]Room
}

func NewRoomTypeGroup() RoomTypeGroup {
	return RoomTypeGroup{rooms: map[string]Room{}}
}

// Put keeps the first room offered for a type and ignores later ones.
func (g *RoomTypeGroup) Put(typeName string, r Room) bool {
	if g.rooms == nil {
		g.rooms = map[string]Room{}
	}
	if _, ok := g.rooms[typeName]; ok {
		return false
	}
	g.order = append(g.order, typeName)
	g.rooms[typeName] = r
	return true
}

func (g RoomTypeGroup) Get(typeName string) (Room, bool) {
	r, ok := g.rooms[typeName]
	return r, ok
}

func (g RoomTypeGroup) Types() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g RoomTypeGroup) Len() int { return len(g.order) }

// Lookup finds a representative room by its id.
func (g RoomTypeGroup) Lookup(roomID ID) (Room, bool) {
	for _, t := range g.order {
		if r := g.rooms[t]; r.RoomID == roomID {
			return r, true
		}
	}
	return Room{}, false
}
