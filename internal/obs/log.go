package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// Logging is plain JSON lines on stdout: request completions, audit events,
// startup warnings. One object per line keeps collectors happy.

var (
	logOnce sync.Once
	stdout  *log.Logger
)

// Logger returns the process-wide line logger. No prefix, no flags; callers
// supply fully formed JSON.
func Logger() *log.Logger {
	logOnce.Do(func() {
		stdout = log.New(os.Stdout, "", 0)
	})
	return stdout
}

// LogRequest writes one JSON object per line. A marshal failure is reported
// as an error-level line rather than dropped silently.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"ts":"error","level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
