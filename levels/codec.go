package levels

import (
	"encoding/json"
	"fmt"
)

// Kind is the canonical entity variant shared by the editor and play mode.
type Kind int

const (
	KindUnknown Kind = iota
	KindBox
	KindPig
	KindBird
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindPig:
		return "pig"
	case KindBird:
		return "bird"
	default:
		return "unknown"
	}
}

// Dialect selects the type names written by a save path.
type Dialect int

const (
	// DialectPlay writes box/pig/bird.
	DialectPlay Dialect = iota
	// DialectEditor writes block/pig/bird-spawn.
	DialectEditor
)

// typeAliases maps every accepted wire type name onto its canonical kind.
var typeAliases = map[string]Kind{
	"box":        KindBox,
	"block":      KindBox,
	"pig":        KindPig,
	"bird":       KindBird,
	"bird-spawn": KindBird,
}

// KindOf resolves a wire type name from either dialect.
func KindOf(typeName string) (Kind, bool) {
	k, ok := typeAliases[typeName]
	return k, ok
}

// TypeName returns the wire name of k in dialect d.
func (d Dialect) TypeName(k Kind) string {
	switch k {
	case KindBox:
		if d == DialectEditor {
			return "block"
		}
		return "box"
	case KindPig:
		return "pig"
	case KindBird:
		if d == DialectEditor {
			return "bird-spawn"
		}
		return "bird"
	}
	return ""
}

// Record is one element of the persisted level array.
type Record struct {
	ID     string   `json:"id"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Type   string   `json:"type"`
}

// Document is the wire form of a level.
type Document []Record

type Point struct {
	X, Y float64
}

// Entity is a decoded box or pig. Width and Height are zero for pigs and for
// boxes whose record carried no size.
type Entity struct {
	ID     string
	Kind   Kind
	X, Y   float64
	Width  float64
	Height float64
}

// Level is a decoded document.
type Level struct {
	Entities []Entity
	Bird     Point
	// HasBird is false when Decode fell back to the launch origin.
	HasBird bool
}

func (l Level) Count(k Kind) int {
	n := 0
	for _, e := range l.Entities {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Encode builds a document with one record per box or pig followed by the bird.
func Encode(entities []Entity, bird Point, dialect Dialect) Document {
	doc := make(Document, 0, len(entities)+1)
	for i, e := range entities {
		if e.Kind != KindBox && e.Kind != KindPig {
			continue
		}
		rec := Record{
			ID:   e.ID,
			X:    e.X,
			Y:    e.Y,
			Type: dialect.TypeName(e.Kind),
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("%s-%d", e.Kind, i+1)
		}
		if e.Kind == KindBox {
			w, h := e.Width, e.Height
			rec.Width, rec.Height = &w, &h
		}
		doc = append(doc, rec)
	}
	return append(doc, Record{ID: "bird", X: bird.X, Y: bird.Y, Type: dialect.TypeName(KindBird)})
}

// Parse unmarshals a payload that must be a non-empty JSON array of records.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Reason: "level data must be a non-empty array: " + err.Error()}
	}
	if len(doc) == 0 {
		return nil, &ValidationError{Reason: "level data must be a non-empty array"}
	}
	return doc, nil
}

// Marshal renders doc with the two-space indent used for stored levels.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("levels: marshal: %w", err)
	}
	return data, nil
}

// Decode is the lenient play-mode path. Unknown types are skipped, the first
// bird record wins, and origin is used when there is none.
func Decode(doc Document, origin Point) (Level, error) {
	if len(doc) == 0 {
		return Level{}, &ValidationError{Reason: "level data must be a non-empty array"}
	}
	lvl := Level{Bird: origin}
	for _, rec := range doc {
		kind, ok := KindOf(rec.Type)
		if !ok {
			continue
		}
		if kind == KindBird {
			if !lvl.HasBird {
				lvl.Bird = Point{X: rec.X, Y: rec.Y}
				lvl.HasBird = true
			}
			continue
		}
		e := Entity{ID: rec.ID, Kind: kind, X: rec.X, Y: rec.Y}
		if kind == KindBox {
			if rec.Width != nil {
				e.Width = *rec.Width
			}
			if rec.Height != nil {
				e.Height = *rec.Height
			}
		}
		lvl.Entities = append(lvl.Entities, e)
	}
	return lvl, nil
}

// DecodeStrict is the editor path: the document must hold exactly one bird.
func DecodeStrict(doc Document) (Level, error) {
	if len(doc) == 0 {
		return Level{}, &ValidationError{Reason: "level data must be a non-empty array"}
	}
	if n := countBirds(doc); n != 1 {
		return Level{}, &ValidationError{Reason: fmt.Sprintf("level must contain exactly one bird spawn, found %d", n)}
	}
	return Decode(doc, Point{})
}

func countBirds(doc Document) int {
	n := 0
	for _, rec := range doc {
		if k, ok := KindOf(rec.Type); ok && k == KindBird {
			n++
		}
	}
	return n
}
