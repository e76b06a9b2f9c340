package main

import (
	"context"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/game"
	"github.com/milk9111/slingshot/physics"
	"go.uber.org/zap"
)

func main() {
	levelID := flag.String("level", "", "level id to play (server or -dir), or an embedded level name")
	serverURL := flag.String("server", "", "level server base URL, e.g. http://localhost:3000")
	dir := flag.String("dir", "", "directory of <id>.json level files")
	tuningPath := flag.String("tuning", "", "gameplay tuning YAML (default: ./configs/tuning.yaml, then built-in)")
	debug := flag.Bool("debug", false, "draw Chipmunk shapes and log at debug level")
	watch := flag.Bool("watch", false, "reload the level when it changes on the server or on disk")
	flag.Parse()

	logCfg := config.LoggingConfig{Level: "info", Format: "console"}
	if *debug {
		logCfg.Level = "debug"
	}
	logger, err := config.NewLogger(logCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tuning, err := config.LoadTuning(*tuningPath)
	if err != nil {
		logger.Fatal("load tuning", zap.Error(err))
	}

	world := physics.NewChipmunkWorld(physics.Vec{X: 0, Y: tuning.Gravity})
	session := game.NewSession(world, tuning, logger.Named("session"))

	src, err := openSource(sourceOptions{ServerURL: *serverURL, Dir: *dir, LevelID: *levelID}, logger)
	if err != nil {
		logger.Fatal("open level source", zap.Error(err))
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *watch {
		if err := src.Watch(ctx); err != nil {
			logger.Warn("level watch unavailable", zap.Error(err))
		}
	}

	g := NewGame(session, src, *debug, logger)

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("slingshot")

	if err := ebiten.RunGame(g); err != nil {
		logger.Fatal("run game", zap.Error(err))
	}
}
