package logger

import (
	"maps"
	"slices"
	"sync"
)

// Components are the loggers RegisterDefaults creates.
var Components = []string{"pipeline", "llm", "source", "report"}

var (
	namedMu sync.RWMutex
	named   = map[string]*Logger{}
)

// Register stores l under name, replacing any earlier logger.
func Register(name string, l *Logger) {
	namedMu.Lock()
	named[name] = l
	namedMu.Unlock()
}

// Get returns the logger registered under name. Unregistered names get
// the global logger tagged with name as its component, so callers never
// need a nil check.
func Get(name string) *Logger {
	namedMu.RLock()
	l, ok := named[name]
	namedMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// Registered returns the sorted names of the registered loggers.
func Registered() []string {
	namedMu.RLock()
	defer namedMu.RUnlock()
	return slices.Sorted(maps.Keys(named))
}

// RegisterDefaults derives one logger per entry of Components from the
// global logger. Call it again after SetGlobalLogger or Init so the
// component loggers follow the new output.
func RegisterDefaults() {
	global := GetGlobalLogger()
	for _, name := range Components {
		Register(name, global.WithComponent(name))
	}
}
