package log

import (
	"os"

	"go.uber.org/zap"
)

var Logger *zap.Logger

// InitLogger builds the development logger unless LOG_FORMAT=json asks for
// the production encoder. It runs before config is loaded, so it reads the
// environment directly.
func InitLogger() {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("LOG_FORMAT") == "json" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	Logger = l
}

// Nop swaps in a logger that discards everything. Tests use it so packages
// that log through the global never see a nil Logger.
func Nop() {
	Logger = zap.NewNop()
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
