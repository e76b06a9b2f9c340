package main

import (
	"context"
	"fmt"

	"github.com/milk9111/slingshot/levelclient"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
	"go.uber.org/zap"
)

type sourceOptions struct {
	ServerURL string
	Dir       string
	LevelID   string
}

// levelSource picks where levels come from: the server, then a directory,
// then the levels embedded in the binary.
type levelSource struct {
	Kind    string
	LevelID string

	store   levelstore.Store
	loader  *levelclient.Loader
	client  *levelclient.Client
	dir     string
	watcher *levelstore.Watcher
	log     *zap.Logger

	changes chan levelstore.Change
}

func openSource(opts sourceOptions, log *zap.Logger) (*levelSource, error) {
	src := &levelSource{
		LevelID: opts.LevelID,
		log:     log.Named("levels"),
		changes: make(chan levelstore.Change, 16),
	}
	switch {
	case opts.ServerURL != "":
		src.Kind = "server"
		src.client = levelclient.New(opts.ServerURL)
		src.store = src.client
	case opts.Dir != "":
		fs, err := levelstore.NewFileStore(opts.Dir, src.log)
		if err != nil {
			return nil, err
		}
		src.Kind = "dir"
		src.store = fs
		src.dir = opts.Dir
	default:
		src.Kind = "embedded"
	}
	if src.store != nil {
		src.loader = levelclient.NewLoader(src.store)
	}
	if src.LevelID == "" && src.store != nil {
		src.LevelID = "default"
	}
	return src, nil
}

// Initial returns the level shown before any asynchronous load completes.
func (s *levelSource) Initial() (levels.Document, error) {
	if s.Kind == "embedded" && s.LevelID != "" {
		doc, err := levels.LoadFromFS(levels.FS, s.LevelID+".json")
		if err == nil {
			return doc, nil
		}
		s.log.Warn("embedded level missing, using default", zap.String("level", s.LevelID), zap.Error(err))
	}
	return levels.Default()
}

// Loader is nil for the embedded source.
func (s *levelSource) Loader() *levelclient.Loader {
	return s.loader
}

// Watch starts forwarding change notices for the selected level.
func (s *levelSource) Watch(ctx context.Context) error {
	switch s.Kind {
	case "server":
		ch, err := s.client.Subscribe(ctx)
		if err != nil {
			return err
		}
		go s.forward(ctx, ch)
	case "dir":
		w, err := levelstore.NewWatcher(s.dir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", s.dir, err)
		}
		s.watcher = w
		go s.forward(ctx, w.Events)
		go func() {
			for err := range w.Errors {
				s.log.Warn("watch error", zap.Error(err))
			}
		}()
	default:
		return fmt.Errorf("nothing to watch for %s levels", s.Kind)
	}
	return nil
}

func (s *levelSource) forward(ctx context.Context, in <-chan levelstore.Change) {
	for {
		select {
		case c, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.changes <- c:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

// PollChange returns a pending change notice without blocking.
func (s *levelSource) PollChange() (levelstore.Change, bool) {
	select {
	case c := <-s.changes:
		return c, true
	default:
		return levelstore.Change{}, false
	}
}

func (s *levelSource) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
