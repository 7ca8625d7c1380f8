// Package watch follows a save directory and reports every save the game
// writes, decoded.
package watch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/opencontainers/go-digest"

	"drgedit/savefile"
)

type Watcher interface {
	Start(out chan<- *Summary) error
	Stop() error
}

type Option func(*dirWatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(dw *dirWatcher) { dw.logger = logger }
}

// WithDebounce sets how long a save must go unwritten before it is read.
// The game writes its save in several chunks.
func WithDebounce(d time.Duration) Option {
	return func(dw *dirWatcher) { dw.debounce = d }
}

// WithSaveOptions passes options through to savefile.Load.
func WithSaveOptions(opts ...savefile.Option) Option {
	return func(dw *dirWatcher) { dw.saveOpts = append(dw.saveOpts, opts...) }
}

func New(dir string, catalogText []byte, opts ...Option) Watcher {
	dw := &dirWatcher{
		dir:         dir,
		catalogText: catalogText,
		debounce:    5 * time.Second,
		timers:      map[string]*time.Timer{},
		last:        map[string]digest.Digest{},
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(dw)
	}
	if dw.logger == nil {
		dw.logger = slog.New(slog.DiscardHandler)
	}
	return dw
}

type dirWatcher struct {
	dir         string
	catalogText []byte
	debounce    time.Duration
	saveOpts    []savefile.Option
	logger      *slog.Logger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	stop    sync.Once
	done    chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
	last   map[string]digest.Digest // what was last reported for each path
}

func (dw *dirWatcher) Start(out chan<- *Summary) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dw.watcher = watcher

	dw.wg.Add(1)
	go func() {
		defer dw.wg.Done()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && IsSave(event.Name) {
					dw.schedule(event.Name, out)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				dw.logger.Warn("watch error", "dir", dw.dir, "error", err)
			}
		}
	}()

	if err := watcher.Add(dw.dir); err != nil {
		dw.Stop()
		return err
	}
	dw.logger.Info("watching", "dir", dw.dir, "debounce", dw.debounce)
	return nil
}

func (dw *dirWatcher) Stop() error {
	var err error
	dw.stop.Do(func() {
		close(dw.done)
		if dw.watcher != nil {
			err = dw.watcher.Close()
		}
		dw.mu.Lock()
		for name, t := range dw.timers {
			t.Stop()
			delete(dw.timers, name)
		}
		dw.mu.Unlock()
		dw.wg.Wait()
	})
	return err
}

// schedule (re)starts the quiet period for a file.
func (dw *dirWatcher) schedule(name string, out chan<- *Summary) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if t, ok := dw.timers[name]; ok {
		t.Reset(dw.debounce)
		return
	}
	dw.timers[name] = time.AfterFunc(dw.debounce, func() { dw.handleFile(name, out) })
}

func (dw *dirWatcher) handleFile(name string, out chan<- *Summary) {
	dw.mu.Lock()
	delete(dw.timers, name)
	dw.mu.Unlock()

	select {
	case <-dw.done:
		return
	default:
	}

	s := Summarize(name, dw.catalogText, dw.saveOpts...)
	if s.Err != nil {
		dw.logger.Warn("failed to decode save", "path", name, "error", s.Err)
	} else {
		dw.mu.Lock()
		seen := dw.last[name] == s.Digest
		dw.last[name] = s.Digest
		dw.mu.Unlock()
		if seen {
			dw.logger.Debug("save unchanged", "path", name, "digest", s.Digest)
			return
		}
	}

	select {
	case out <- s:
	case <-dw.done:
	}
}
