package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"shinetwoplay/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stdout
)

// Init configures the global zerolog logger. It returns a closer for the
// optional log file; callers defer it.
func Init(cfg config.LogConfig) func() error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var sink io.Writer = os.Stdout
	closeFn := func() error { return nil }
	if cfg.File != "" {
		fw, err := newRotatingWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.File).Msg("log file open failed; using stdout only")
		} else {
			sink = io.MultiWriter(os.Stdout, fw)
			closeFn = fw.Close
		}
	}
	setWriter(sink)

	var console io.Writer = sink
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: sink}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Str("service", cfg.Service).Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return closeFn
}

// Writer is the raw sink shared with non-zerolog loggers (HTTP access log).
func Writer() io.Writer {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output
}

func setWriter(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}
