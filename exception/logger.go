package exception

import (
	"sync"

	"github.com/astaxie/beego/logs"
)

var (
	logMu  sync.RWMutex
	logger *logs.BeeLogger
)

// Logger returns the package logger. Until SetLogger is called it is a
// console logger at warning level.
func Logger() *logs.BeeLogger {
	logMu.RLock()
	l := logger
	logMu.RUnlock()
	if l != nil {
		return l
	}

	logMu.Lock()
	defer logMu.Unlock()
	if logger == nil {
		logger = newConsoleLogger(logs.LevelWarning, false)
	}
	return logger
}

// SetLogger replaces the package logger.
func SetLogger(l *logs.BeeLogger) {
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

func newConsoleLogger(level int, funcCall bool) *logs.BeeLogger {
	l := logs.NewLogger()
	if err := l.SetLogger(logs.AdapterConsole); err != nil {
		l.Error("open console log: %v", err)
	}
	l.SetLevel(level)
	l.EnableFuncCallDepth(funcCall)
	return l
}
