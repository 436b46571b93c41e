package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file on change and pushes the new logging
// level to a callback. Only the log level is applied live; everything else
// requires a restart.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	onLevel func(level string)
	logger  zerolog.Logger
	done    chan struct{}
}

// NewWatcher watches path for writes. onLevel is invoked with the new
// logging level after each successful reload.
func NewWatcher(path string, onLevel func(level string), logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		onLevel: onLevel,
		logger:  logger.With().Str("component", "config").Logger(),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn().Err(err).Msg("Config reload failed, keeping current settings")
				continue
			}

			w.logger.Info().Str("level", cfg.Logging.Level).Msg("Config reloaded")
			if w.onLevel != nil {
				w.onLevel(cfg.Logging.Level)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")

		case <-w.done:
			return
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
