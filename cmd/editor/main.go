package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/slingshot/config"
	"github.com/milk9111/slingshot/levelclient"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
	"github.com/milk9111/slingshot/physics"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
)

func main() {
	serverURL := flag.String("server", "", "level server base URL; takes precedence over -dir")
	dir := flag.String("dir", "levels", "directory of <id>.json level files")
	levelID := flag.String("level", "default", "level id to open on start")
	tuningPath := flag.String("tuning", "", "gameplay tuning YAML (default: ./configs/tuning.yaml, then built-in)")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger, err := config.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tuning, err := config.LoadTuning(*tuningPath)
	if err != nil {
		logger.Fatal("load tuning", zap.Error(err))
	}

	var store levelstore.Store
	if *serverURL != "" {
		store = levelclient.New(*serverURL)
	} else {
		fs, err := levelstore.NewFileStore(*dir, logger.Named("store"))
		if err != nil {
			logger.Fatal("open level directory", zap.String("dir", *dir), zap.Error(err))
		}
		store = fs
	}

	// the editor never steps the world, so gravity is irrelevant
	world := physics.NewChipmunkWorld(physics.Vec{})
	editor := newEditor(world, tuning, levelclient.NewLoader(store), logger.Named("editor"))
	editor.attachUI(*levelID)

	if err := clipboard.Init(); err != nil {
		logger.Warn("clipboard unavailable", zap.Error(err))
	} else {
		editor.copyText = func(data []byte) error {
			clipboard.Write(clipboard.FmtText, data)
			return nil
		}
	}

	if _, err := editor.Place(levels.KindBird); err != nil {
		logger.Fatal("place bird", zap.Error(err))
	}
	if *levelID != "" && levelstore.ValidID(*levelID) {
		editor.Load(*levelID)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("slingshot level editor")

	if err := ebiten.RunGame(editor); err != nil {
		logger.Fatal("run editor", zap.Error(err))
	}
}
