package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/sdcgo/internal/logger"
)

// WatchLogLevel watches configPath for changes and reapplies the
// logging.level / logging.format fields to the process-wide logger as they
// change, without requiring a restart. It returns a fsnotify.Watcher the
// caller should Close when done; watch errors are logged and otherwise
// ignored, mirroring a best-effort background facility rather than a
// critical path.
func WatchLogLevel(configPath string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(configPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(configPath)
				if err != nil {
					logger.Warn("config reload failed", "path", configPath, logger.KeyError, err.Error())
					continue
				}
				logger.SetLevel(cfg.Logging.Level)
				logger.SetFormat(cfg.Logging.Format)
				logger.Info("config reloaded", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", logger.KeyError, err.Error())
			}
		}
	}()

	return watcher, nil
}
