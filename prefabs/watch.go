package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long a file must stay quiet before its change is
// forwarded. Editors often write a file several times per save.
const WatchDebounce = 100 * time.Millisecond

type ChangeKind int

const (
	ChangeNavSpec ChangeKind = iota + 1
	ChangeLayout
	ChangeScript
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNavSpec:
		return "nav_spec"
	case ChangeLayout:
		return "layout"
	case ChangeScript:
		return "script"
	default:
		return "unknown"
	}
}

// Change is one settled edit to a file the simulation reloads. Name is the
// file's base name, the form nav specs use to refer to layouts and scripts.
type Change struct {
	Path string
	Name string
	Kind ChangeKind
}

// Classifier decides whether a path is worth reloading and what it is.
type Classifier func(path string) (Change, bool)

// ClassifyNavFile recognizes the nav spec, layouts under a levels directory
// and tengo target scripts. Anything else is ignored.
func ClassifyNavFile(path string) (Change, bool) {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tengo":
		return Change{Path: path, Name: name, Kind: ChangeScript}, true
	case ".yaml", ".yml":
		if filepath.Base(filepath.Dir(path)) == "levels" {
			return Change{Path: path, Name: name, Kind: ChangeLayout}, true
		}
		if name == NavSpecFile {
			return Change{Path: path, Name: name, Kind: ChangeNavSpec}, true
		}
	}
	return Change{}, false
}

// Watcher turns fsnotify events on the watched directories into debounced
// Changes. The run loop owns Changes and Errors and closes both on exit.
type Watcher struct {
	watcher  *fsnotify.Watcher
	classify Classifier
	debounce time.Duration

	Changes chan Change
	Errors  chan error

	closeCh chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs, forwarding files accepted by classify. A nil
// classify means ClassifyNavFile.
func NewWatcher(classify Classifier, dirs ...string) (*Watcher, error) {
	if classify == nil {
		classify = ClassifyNavFile
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		classify: classify,
		debounce: WatchDebounce,
		Changes:  make(chan Change, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.doneCh
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Changes)
		close(w.Errors)
		close(w.doneCh)
	}()

	// Pending changes in first-seen order; every new event restarts the
	// quiet period for the whole batch.
	var order []string
	pending := make(map[string]Change)
	var flush <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			c, ok := w.classify(event.Name)
			if !ok {
				continue
			}
			if _, seen := pending[event.Name]; !seen {
				order = append(order, event.Name)
			}
			pending[event.Name] = c
			flush = time.After(w.debounce)

		case <-flush:
			flush = nil
			for _, path := range order {
				select {
				case w.Changes <- pending[path]:
				case <-w.closeCh:
					return
				}
				delete(pending, path)
			}
			order = order[:0]

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}

		case <-w.closeCh:
			return
		}
	}
}
