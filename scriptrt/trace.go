package scriptrt

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/pawlang/paw/sourcemap"
)

var (
	traceMu        sync.Mutex
	traceInstalled bool
	traceMapPath   string
)

// InstallTrace arms the failure interceptor for the loaded unit. The
// aggregation file calls it from init() with the path of the persisted
// source map; subsequent calls are ignored, so the hook is installed
// exactly once per loaded unit.
func InstallTrace(mapPath string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	if traceInstalled {
		return
	}
	traceInstalled = true
	traceMapPath = mapPath
}

// Intercept is deferred at every generated entry point. On a failure it
// re-presents the diagnostic in original-script terms: the failure site
// is resolved through the source map to the authored file and an
// estimated original line, and renamed identifiers in the message are
// restored. The failure then continues to propagate to the host.
func Intercept() {
	r := recover()
	if r == nil {
		return
	}
	traceMu.Lock()
	path := traceMapPath
	traceMu.Unlock()

	msg := fmt.Sprint(r)
	if path != "" {
		if sm, err := sourcemap.Load(path); err == nil {
			if line, ok := sourcemap.TranslateFailure(sm, msg, string(debug.Stack())); ok {
				fmt.Fprintln(os.Stderr, line)
				panic(r)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "script failure: %s\n", msg)
	panic(r)
}
