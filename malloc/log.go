package malloc

import (
	"sync/atomic"

	log "github.com/prataprc/golog"
)

var logok = int64(0)

// LogComponents enables logging. By default logging is disabled; call
// this with "allocator", "arena", "self" or "all" to turn it on. Any of
// these names enables logging for the whole package; there is no
// per-component filter.
func LogComponents(components ...string) {
	for _, comp := range components {
		switch comp {
		case "allocator", "arena", "self", "all":
			atomic.StoreInt64(&logok, 1)
		}
	}
}

func debugf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		log.Debugf(format, v...)
	}
}

func infof(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		log.Infof(format, v...)
	}
}

func warnf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		log.Warnf(format, v...)
	}
}

func errorf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		log.Errorf(format, v...)
	}
}
