package app

import (
	"os"
	"strings"
	"time"

	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/logger"

	"go.uber.org/zap"
)

// Run modes for the -mode flag
const (
	ModeAll    = "all"    // http, realtime and the queue worker or maintenance loop
	ModeAPI    = "api"    // http and realtime only
	ModeWorker = "worker" // queue worker only, needs queue.enabled
)

// Options controls how the app starts
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions fills defaults; the mode is matched case-insensitively
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultStopTimeout
	}
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
