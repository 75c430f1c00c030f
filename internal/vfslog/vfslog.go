// Package vfslog provides the shared, repository-tagged logger used for
// best-effort diagnostics: errors closing a stream handle during Seek and
// panics recovered from after-hooks. None of this output is part of any
// operation's result.
package vfslog

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	std = logrus.New()
)

// SetOutput adds every hook in out to the shared logger, so entries from
// every repository logger also reach those hooks. It does not change the
// logger's own output destination, and hooks added earlier stay in place.
func SetOutput(out logrus.Hooks) {
	mu.Lock()
	defer mu.Unlock()
	for _, hooks := range out {
		for _, h := range hooks {
			std.AddHook(h)
		}
	}
}

// SetLevel adjusts verbosity for every repository logger.
func SetLevel(level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	std.SetLevel(level)
}

// Logger returns an entry pre-tagged with the owning repository's name.
func Logger(repository string) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return std.WithField("repository", repository)
}
