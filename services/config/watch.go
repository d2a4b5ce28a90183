//go:build !(rp2040 || rp2350)

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"lightcode-go/x/logx"
)

// Watch reloads the profile at path whenever it is written and calls fn
// with the result. The directory is watched so editors that replace the
// file by rename are seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(Profile, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logx.Debug("config: reload %s", abs)
			fn(Load(abs))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logx.Warn("config: watch %s: %v", abs, err)
		}
	}
}
