package log

import "time"

// LogAndMeasureExecutionTime logs that functionName has started, and
// returns a function to be called (typically deferred) when it ends,
// which logs the elapsed execution time.
func LogAndMeasureExecutionTime(log *Logger, functionName string) func() {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}
