package logger

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	log  *logrus.Logger
	once sync.Once
)

// Init configures the shared logger. Level is one of debug, info, warn,
// error; anything else falls back to info. Safe to call more than once;
// only the first call configures the logger.
func Init(level string) {
	once.Do(func() {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})

		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			parsed = logrus.InfoLevel
		}
		log.SetLevel(parsed)
	})
}

// Get returns the shared logger, initializing it at info level if Init
// was never called.
func Get() *logrus.Logger {
	if log == nil {
		Init("info")
	}
	return log
}

// WithJob returns an entry carrying job context fields.
func WithJob(jobID uint) *logrus.Entry {
	return Get().WithField("job_id", jobID)
}

// WithComponent returns an entry tagged with a component name.
func WithComponent(name string) *logrus.Entry {
	return Get().WithField("component", name)
}
