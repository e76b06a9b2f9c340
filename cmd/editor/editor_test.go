package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/slingshot/common"
	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/levelclient"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
	"github.com/milk9111/slingshot/physics"
	"github.com/milk9111/slingshot/physics/physicstest"
	"go.uber.org/zap/zaptest"
)

func newTestEditor(t *testing.T, withStore bool) (*Editor, *physicstest.World) {
	t.Helper()
	var loader *levelclient.Loader
	if withStore {
		fs, err := levelstore.NewFileStore(filepath.Join(t.TempDir(), "levels"), zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		loader = levelclient.NewLoader(fs)
	}
	w := physicstest.New()
	return newEditor(w, config.DefaultTuning(), loader, zaptest.NewLogger(t)), w
}

// settle waits for one loader result and applies it.
func settle(t *testing.T, e *Editor) levelclient.Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r, ok := e.loader.Poll(); ok {
			e.applyResult(r)
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for loader")
	return levelclient.Result{}
}

func TestPlaceAtCanvasCenter(t *testing.T) {
	e, w := newTestEditor(t, false)
	for _, k := range []levels.Kind{levels.KindBox, levels.KindPig, levels.KindBird} {
		t.Run(k.String(), func(t *testing.T) {
			h, err := e.Place(k)
			if err != nil {
				t.Fatalf("Place: %v", err)
			}
			entry, ok := e.reg.Get(h)
			if !ok {
				t.Fatal("placed entity not registered")
			}
			pos, _ := w.Position(entry.Body)
			if pos != canvasCenter() {
				t.Fatalf("placed at %v, want %v", pos, canvasCenter())
			}
		})
	}
	if _, err := e.Place(levels.KindUnknown); err == nil {
		t.Fatal("placing an unknown kind should fail")
	}
}

func TestPlaceBirdKeepsSingleBird(t *testing.T) {
	e, w := newTestEditor(t, false)
	for i := 0; i < 3; i++ {
		if _, err := e.Place(levels.KindBird); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}
	if e.reg.Len() != 1 {
		t.Fatalf("registry holds %d entries, want 1", e.reg.Len())
	}
	if w.BodyCount() != 1 {
		t.Fatalf("world holds %d bodies, want 1", w.BodyCount())
	}
}

func TestPlacedIDsAreUnique(t *testing.T) {
	e, _ := newTestEditor(t, false)
	doc := levels.Document{
		{ID: "box-1", X: 1, Y: 1, Type: "block"},
		{ID: "bird", X: 5, Y: 1, Type: "bird-spawn"},
	}
	if err := e.LoadDocument(doc); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	h, err := e.Place(levels.KindBox)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	entry, _ := e.reg.Get(h)
	if entry.ID == "box-1" {
		t.Fatal("placed box reused an existing id")
	}
}

func TestDeleteAt(t *testing.T) {
	e, w := newTestEditor(t, false)
	if _, err := e.Place(levels.KindPig); err != nil {
		t.Fatalf("Place: %v", err)
	}
	c := canvasCenter()
	sx, sy := common.WorldToScreen(c.X, c.Y)

	if !e.DeleteAt(sx, sy) {
		t.Fatal("expected the pig to be deleted")
	}
	if e.reg.Len() != 0 || w.BodyCount() != 0 {
		t.Fatalf("registry %d, bodies %d after delete", e.reg.Len(), w.BodyCount())
	}
	if e.DeleteAt(sx, sy) {
		t.Fatal("deleting empty space reported success")
	}
}

func TestDragMovesBird(t *testing.T) {
	e, w := newTestEditor(t, false)
	h, _ := e.Place(levels.KindBird)
	entry, _ := e.reg.Get(h)

	c := canvasCenter()
	sx, sy := common.WorldToScreen(c.X, c.Y)
	e.PointerDown(sx, sy)
	e.PointerMove(sx+common.Scale*2, sy)
	e.PointerUp(sx+common.Scale*2, sy)

	pos, _ := w.Position(entry.Body)
	want := physics.Vec{X: c.X + 2, Y: c.Y}
	if pos.Sub(want).Len() > 1e-9 {
		t.Fatalf("bird at %v, want %v", pos, want)
	}
	if w.Steps != 0 {
		t.Fatal("editor stepped the world")
	}
}

func TestDocumentRequiresBird(t *testing.T) {
	e, _ := newTestEditor(t, false)
	if _, err := e.Place(levels.KindBox); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := e.Document(); !levels.IsValidation(err) {
		t.Fatalf("Document without bird = %v, want ValidationError", err)
	}

	if _, err := e.Place(levels.KindBird); err != nil {
		t.Fatalf("Place: %v", err)
	}
	doc, err := e.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	types := map[string]int{}
	for _, rec := range doc {
		types[rec.Type]++
	}
	if types["block"] != 1 || types["bird-spawn"] != 1 || len(doc) != 2 {
		t.Fatalf("unexpected document types %v", types)
	}
}

func TestSaveLoadThroughStore(t *testing.T) {
	e, _ := newTestEditor(t, true)
	e.Place(levels.KindBox)
	e.Place(levels.KindPig)
	e.Place(levels.KindBird)

	e.Save("castle")
	if r := settle(t, e); r.Err != nil {
		t.Fatalf("save: %v", r.Err)
	}
	if e.notice != "Level saved successfully." {
		t.Fatalf("notice = %q", e.notice)
	}

	e.List()
	if r := settle(t, e); len(r.IDs) != 1 || r.IDs[0] != "castle" {
		t.Fatalf("list = %v, %v", r.IDs, r.Err)
	}

	e.reg.Clear()
	e.Load("castle")
	if r := settle(t, e); r.Err != nil {
		t.Fatalf("load: %v", r.Err)
	}
	if len(e.reg.Boxes()) != 1 || len(e.reg.Pigs()) != 1 {
		t.Fatalf("loaded %d boxes, %d pigs", len(e.reg.Boxes()), len(e.reg.Pigs()))
	}
	if _, ok := e.reg.Bird(); !ok {
		t.Fatal("loaded level has no bird")
	}

	e.Delete("castle")
	settle(t, e)
	e.Load("castle")
	settle(t, e)
	if !strings.Contains(e.notice, "not found") {
		t.Fatalf("notice after loading a deleted level = %q", e.notice)
	}
}

func TestPersistenceGuards(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		e, _ := newTestEditor(t, false)
		e.Place(levels.KindBird)
		e.Save("castle")
		if e.notice != "No level store configured" {
			t.Fatalf("notice = %q", e.notice)
		}
	})
	t.Run("invalid id", func(t *testing.T) {
		e, _ := newTestEditor(t, true)
		e.Place(levels.KindBird)
		e.Save("../castle")
		if !strings.HasPrefix(e.notice, "Invalid level id") {
			t.Fatalf("notice = %q", e.notice)
		}
	})
	t.Run("missing bird", func(t *testing.T) {
		e, _ := newTestEditor(t, true)
		e.Save("castle")
		if !strings.HasPrefix(e.notice, "Invalid level") {
			t.Fatalf("notice = %q", e.notice)
		}
	})
}

func TestCopyJSON(t *testing.T) {
	e, _ := newTestEditor(t, false)
	var copied []byte
	e.copyText = func(data []byte) error {
		copied = data
		return nil
	}
	e.Place(levels.KindBird)
	e.CopyJSON()

	doc, err := levels.Parse(copied)
	if err != nil {
		t.Fatalf("clipboard holds invalid JSON: %v", err)
	}
	if _, err := levels.DecodeStrict(doc); err != nil {
		t.Fatalf("clipboard document: %v", err)
	}
}
