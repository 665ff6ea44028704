package debug

import (
	"net/http"
	_ "net/http/pprof"

	"go.uber.org/zap"

	"styleaudit/internal/log"
)

// StartPprof serves the pprof handlers on host in the background. An empty
// host leaves profiling off.
func StartPprof(host string) {
	if host == "" {
		return
	}
	go func() {
		log.Logger.Info("pprof listening", zap.String("host", host))
		if err := http.ListenAndServe(host, nil); err != nil {
			log.Logger.Error("pprof failed", zap.Error(err))
		}
	}()
}
