package main

import (
	"fmt"
	"strings"

	"github.com/ebitenui/ebitenui"
	ebuiinput "github.com/ebitenui/ebitenui/input"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/slingshot/common"
	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/ecs"
	"github.com/milk9111/slingshot/game"
	"github.com/milk9111/slingshot/input"
	"github.com/milk9111/slingshot/levelclient"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
	"github.com/milk9111/slingshot/physics"
	"github.com/milk9111/slingshot/render"
	"go.uber.org/zap"
)

const noticeFrames = 240

// Editor places and arranges level entities. The physics world is used for
// bodies and hit testing only; it is never stepped.
type Editor struct {
	frames int

	world  physics.World
	tuning config.Tuning
	reg    *game.Registry
	ctrl   *game.Controller
	round  game.RoundState
	origin physics.Vec
	seq    int

	loader   *levelclient.Loader
	copyText func(data []byte) error
	log      *zap.Logger

	ui       *ebitenui.UI
	idInput  *widget.TextInput
	renderer *render.Renderer
	pointer  input.Pointer

	notice      string
	noticeUntil int
}

// newEditor builds an editor without any UI. loader may be nil, in which case
// every persistence action reports that no store is configured.
func newEditor(world physics.World, tuning config.Tuning, loader *levelclient.Loader, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Editor{
		world:    world,
		tuning:   tuning,
		origin:   tuning.LaunchOrigin.Vec(),
		loader:   loader,
		log:      log,
		renderer: render.New(),
	}
	e.reg = game.NewRegistry(world, tuning, log.Named("registry"))
	e.ctrl = game.NewController(e.reg, world, &e.round, &e.tuning, log.Named("controller"))
	e.ctrl.EditMode = true
	return e
}

func (e *Editor) attachUI(initialID string) {
	e.ui, e.idInput = buildEditorUI(toolbarActions{
		PlaceBox:  func() { e.place(levels.KindBox) },
		PlacePig:  func() { e.place(levels.KindPig) },
		PlaceBird: func() { e.place(levels.KindBird) },
		Save:      e.Save,
		Load:      e.Load,
		Delete:    e.Delete,
		List:      e.List,
		CopyJSON:  e.CopyJSON,
	}, initialID)
}

// canvasCenter is the world point under the middle of the screen.
func canvasCenter() physics.Vec {
	x, y := common.ScreenToWorld(common.BaseWidth/2, common.BaseHeight/2)
	return physics.Vec{X: x, Y: y}
}

// Place adds an entity of kind k at the canvas centre. Placing a bird moves
// the existing one, so a level never holds more than one.
func (e *Editor) Place(k levels.Kind) (ecs.Entity, error) {
	pos := canvasCenter()
	switch k {
	case levels.KindBox:
		return e.reg.AddBox(e.nextID(k), pos, e.tuning.BoxWidth, e.tuning.BoxHeight)
	case levels.KindPig:
		return e.reg.AddPig(e.nextID(k), pos)
	case levels.KindBird:
		h, err := e.reg.SpawnBird(pos)
		if err == nil {
			e.origin = pos
		}
		return h, err
	default:
		return ecs.Entity{}, fmt.Errorf("editor: cannot place %s", k)
	}
}

func (e *Editor) place(k levels.Kind) {
	if _, err := e.Place(k); err != nil {
		e.log.Warn("place", zap.Stringer("kind", k), zap.Error(err))
		e.notify(err.Error())
	}
}

// nextID returns an id of the form kind-N not used by any entry.
func (e *Editor) nextID(k levels.Kind) string {
	used := make(map[string]bool, e.reg.Len())
	for _, entry := range e.reg.All() {
		used[entry.ID] = true
	}
	for {
		e.seq++
		id := fmt.Sprintf("%s-%d", k, e.seq)
		if !used[id] {
			return id
		}
	}
}

// DeleteAt removes the entity under the screen point, if any.
func (e *Editor) DeleteAt(sx, sy float64) bool {
	x, y := common.ScreenToWorld(sx, sy)
	entry, _, ok := e.ctrl.Pick(physics.Vec{X: x, Y: y})
	if !ok {
		return false
	}
	e.ctrl.Reset()
	return e.reg.Remove(entry.Handle)
}

func (e *Editor) PointerDown(sx, sy float64) { e.ctrl.PointerDown(sx, sy) }
func (e *Editor) PointerMove(sx, sy float64) { e.ctrl.PointerMove(sx, sy) }
func (e *Editor) PointerUp(sx, sy float64)   { e.ctrl.PointerUp(sx, sy) }

// Document encodes the level in the editor dialect. It fails unless the
// level has exactly one bird spawn.
func (e *Editor) Document() (levels.Document, error) {
	if _, ok := e.reg.Bird(); !ok {
		return nil, &levels.ValidationError{Reason: "place a bird spawn before saving"}
	}
	doc := game.Snapshot(e.reg, e.world, e.origin, levels.DialectEditor)
	if _, err := levels.DecodeStrict(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDocument replaces the current level. Documents without a bird get one
// at the default launch origin.
func (e *Editor) LoadDocument(doc levels.Document) error {
	lvl, err := levels.Decode(doc, levels.Point{X: e.tuning.LaunchOrigin.X, Y: e.tuning.LaunchOrigin.Y})
	if err != nil {
		return err
	}
	e.ctrl.Reset()
	e.reg.Clear()
	for _, ent := range lvl.Entities {
		pos := physics.Vec{X: ent.X, Y: ent.Y}
		switch ent.Kind {
		case levels.KindBox:
			_, err = e.reg.AddBox(ent.ID, pos, ent.Width, ent.Height)
		case levels.KindPig:
			_, err = e.reg.AddPig(ent.ID, pos)
		}
		if err != nil {
			e.reg.Clear()
			return fmt.Errorf("editor: load: %w", err)
		}
	}
	e.origin = physics.Vec{X: lvl.Bird.X, Y: lvl.Bird.Y}
	if _, err := e.reg.SpawnBird(e.origin); err != nil {
		e.reg.Clear()
		return fmt.Errorf("editor: load: %w", err)
	}
	return nil
}

func (e *Editor) Save(id string) {
	id = strings.TrimSpace(id)
	doc, err := e.Document()
	if err != nil {
		e.notify(levels.Describe(err))
		return
	}
	if !e.requireStore(id) {
		return
	}
	e.loader.Save(id, doc)
	e.notify(fmt.Sprintf("Saving %q...", id))
}

func (e *Editor) Load(id string) {
	id = strings.TrimSpace(id)
	if !e.requireStore(id) {
		return
	}
	e.loader.Load(id)
	e.notify(fmt.Sprintf("Loading %q...", id))
}

func (e *Editor) Delete(id string) {
	id = strings.TrimSpace(id)
	if !e.requireStore(id) {
		return
	}
	e.loader.Delete(id)
}

func (e *Editor) List() {
	if e.loader == nil {
		e.notify("No level store configured")
		return
	}
	e.loader.List()
}

func (e *Editor) requireStore(id string) bool {
	if e.loader == nil {
		e.notify("No level store configured")
		return false
	}
	if !levelstore.ValidID(id) {
		e.notify(fmt.Sprintf("Invalid level id %q", id))
		return false
	}
	return true
}

// CopyJSON puts the level document on the system clipboard.
func (e *Editor) CopyJSON() {
	doc, err := e.Document()
	if err != nil {
		e.notify(levels.Describe(err))
		return
	}
	data, err := levels.Marshal(doc)
	if err != nil {
		e.notify(err.Error())
		return
	}
	if e.copyText == nil {
		e.notify("Clipboard unavailable")
		return
	}
	if err := e.copyText(data); err != nil {
		e.log.Warn("clipboard write", zap.Error(err))
		e.notify("Clipboard unavailable")
		return
	}
	e.notify("Level JSON copied to clipboard")
}

func (e *Editor) notify(msg string) {
	e.notice = msg
	e.noticeUntil = e.frames + noticeFrames
}

// pollLoader applies finished store operations.
func (e *Editor) pollLoader() {
	if e.loader == nil {
		return
	}
	for {
		r, ok := e.loader.Poll()
		if !ok {
			return
		}
		e.applyResult(r)
	}
}

func (e *Editor) applyResult(r levelclient.Result) {
	if r.Err != nil {
		e.log.Warn("level operation failed", zap.String("op", string(r.Op)), zap.String("id", r.ID), zap.Error(r.Err))
		e.notify(levels.Describe(r.Err))
		return
	}
	switch r.Op {
	case levelclient.OpRead:
		if err := e.LoadDocument(r.Doc); err != nil {
			e.notify(levels.Describe(err))
			return
		}
		e.notify(fmt.Sprintf("Loaded %q", r.ID))
	case levelstore.OpWrite:
		e.notify("Level saved successfully.")
	case levelstore.OpDelete:
		e.notify("Level deleted successfully.")
	case levelclient.OpList:
		if len(r.IDs) == 0 {
			e.notify("No saved levels")
			return
		}
		e.notify("Levels: " + strings.Join(r.IDs, ", "))
	}
}

func (e *Editor) Update() error {
	e.frames++
	e.ui.Update()
	e.pollLoader()

	blocked := ebuiinput.UIHovered
	e.pointer.Update(e, blocked)
	if !blocked && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		x, y := ebiten.CursorPosition()
		e.DeleteAt(float64(x), float64(y))
	}
	return nil
}

func (e *Editor) Draw(screen *ebiten.Image) {
	v := render.View{
		Registry:   e.reg,
		World:      e.world,
		Controller: e.ctrl,
		GroundY:    e.tuning.GroundY,
		Title:      "Level editor: drag to move, right click to delete",
	}
	if e.frames < e.noticeUntil {
		v.Notice = e.notice
	}
	e.renderer.Draw(screen, v)
	e.ui.Draw(screen)
}

func (e *Editor) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (e *Editor) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
