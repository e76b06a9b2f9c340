package main

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/slingshot/common"
	"github.com/milk9111/slingshot/game"
	"github.com/milk9111/slingshot/input"
	"github.com/milk9111/slingshot/levelclient"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
	"github.com/milk9111/slingshot/render"
	"go.uber.org/zap"
)

// noticeFrames is how long a HUD notification stays up.
const noticeFrames = 180

type Game struct {
	frames int

	session  *game.Session
	src      *levelSource
	renderer *render.Renderer
	pointer  input.Pointer
	gameOver *gameOverUI
	log      *zap.Logger

	notice      string
	noticeUntil int
}

func NewGame(session *game.Session, src *levelSource, debug bool, log *zap.Logger) *Game {
	g := &Game{
		session:  session,
		src:      src,
		renderer: render.New(),
		log:      log,
	}
	g.renderer.Debug = debug
	g.gameOver = newGameOverUI(g.restart)

	doc, err := src.Initial()
	if err != nil {
		log.Error("initial level", zap.Error(err))
	} else if err := session.LoadLevel(doc); err != nil {
		log.Error("initial level", zap.Error(err))
	}

	if loader := src.Loader(); loader != nil {
		loader.Load(src.LevelID)
		g.notify(fmt.Sprintf("Loading %q from %s...", src.LevelID, src.Kind))
	}
	return g
}

func (g *Game) Update() (err error) {
	// a bad frame is logged and skipped; returning an error would end the game
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("update panic", zap.Any("panic", r))
			err = nil
		}
	}()
	g.frames++

	g.pollLoads()
	g.pollChanges()

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.save()
	}

	if g.session.Round().Phase == game.PhaseGameOver {
		g.gameOver.SetScore(g.session.Round().Score)
		g.gameOver.ui.Update()
		return nil
	}

	g.pointer.Update(g.session, false)
	if err := g.session.Update(); err != nil {
		var fault *game.PhysicsEngineFault
		if errors.As(err, &fault) {
			g.log.Warn("physics fault recovered", zap.Error(err))
		} else {
			g.log.Error("frame update", zap.Error(err))
		}
	}
	for _, ev := range g.session.Events() {
		switch ev.Kind {
		case game.EventPigDestroyed:
			g.notify(fmt.Sprintf("Pig destroyed! Score: %d", ev.Score))
		case game.EventGameOver:
			g.log.Info("round finished", zap.Int("score", ev.Score), zap.String("level", g.src.LevelID))
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("draw panic", zap.Any("panic", r))
		}
	}()

	v := render.SessionView(g.session)
	if g.frames < g.noticeUntil {
		v.Notice = g.notice
	}
	v.Title = "R: restart   S: save"
	g.renderer.Draw(screen, v)

	if g.session.Round().Phase == game.PhaseGameOver {
		g.gameOver.ui.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

func (g *Game) notify(msg string) {
	g.notice = msg
	g.noticeUntil = g.frames + noticeFrames
}

func (g *Game) restart() {
	if err := g.session.Restart(); err != nil {
		g.log.Warn("restart", zap.Error(err))
		g.notify(levels.Describe(err))
	}
}

func (g *Game) save() {
	loader := g.src.Loader()
	if loader == nil {
		g.notify("No level store configured (use -server or -dir)")
		return
	}
	loader.Save(g.src.LevelID, g.session.Document(levels.DialectPlay))
}

// pollLoads applies finished background operations on the frame loop.
func (g *Game) pollLoads() {
	loader := g.src.Loader()
	if loader == nil {
		return
	}
	for {
		r, ok := loader.Poll()
		if !ok {
			return
		}
		g.applyResult(r)
	}
}

func (g *Game) applyResult(r levelclient.Result) {
	if r.Err != nil {
		g.log.Warn("level operation failed", zap.String("op", string(r.Op)), zap.String("id", r.ID), zap.Error(r.Err))
		g.notify(levels.Describe(r.Err))
		return
	}
	switch r.Op {
	case levelclient.OpRead:
		if err := g.session.LoadLevel(r.Doc); err != nil {
			g.notify(levels.Describe(err))
			return
		}
		g.notify(fmt.Sprintf("Loaded %q", r.ID))
	case levelstore.OpWrite:
		g.notify(fmt.Sprintf("Saved %q", r.ID))
	}
}

func (g *Game) pollChanges() {
	for {
		c, ok := g.src.PollChange()
		if !ok {
			return
		}
		if c.ID != g.src.LevelID {
			continue
		}
		switch c.Op {
		case levelstore.OpWrite:
			if loader := g.src.Loader(); loader != nil {
				loader.Load(c.ID)
			}
		case levelstore.OpDelete:
			g.notify(fmt.Sprintf("Level %q was deleted", c.ID))
		}
	}
}
