package alerting

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// RuleSet holds the active custom rules and swaps them on reload.
type RuleSet struct {
	mu    sync.RWMutex
	rules []*CustomRule
}

// NewRuleSet returns a RuleSet holding rules.
func NewRuleSet(rules []*CustomRule) *RuleSet {
	return &RuleSet{rules: rules}
}

// Rules returns the current rules.
func (s *RuleSet) Rules() []*CustomRule {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Replace swaps in a new rule list.
func (s *RuleSet) Replace(rules []*CustomRule) {
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
}

// RuleWatcher reloads a rules file into a RuleSet when it changes on disk.
// A file that fails to parse leaves the previous rules in place.
type RuleWatcher struct {
	path    string
	set     *RuleSet
	watcher *fsnotify.Watcher
	// OnReload is called after each reload attempt.
	OnReload func(n int, err error)
}

// NewRuleWatcher loads path into set and prepares a watcher on its directory.
func NewRuleWatcher(path string, set *RuleSet) (*RuleWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve rules path: %w", err)
	}
	rules, err := LoadRulesFromFile(abs)
	if err != nil {
		return nil, err
	}
	set.Replace(rules)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are seen.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch rules directory: %w", err)
	}
	return &RuleWatcher{path: abs, set: set, watcher: w}, nil
}

// Run processes file events until ctx is done.
func (w *RuleWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("rules watcher error: %v", err)
		}
	}
}

func (w *RuleWatcher) reload() {
	rules, err := LoadRulesFromFile(w.path)
	if err != nil {
		log.Printf("rules reload failed, keeping previous rules: %v", err)
	} else {
		w.set.Replace(rules)
		log.Printf("rules reloaded: %d custom rules", len(rules))
	}
	if w.OnReload != nil {
		w.OnReload(len(rules), err)
	}
}
