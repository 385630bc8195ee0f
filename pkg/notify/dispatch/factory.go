package dispatch

import (
	"fmt"
	"time"

	"github.com/nimburion/notify/pkg/notify"
	"github.com/nimburion/notify/pkg/observability/logger"
)

// Factory builds the notifier for one validated entry.
type Factory func(entry notify.ServiceEntry) (Notifier, error)

// NewNotifier creates the backend adapter matching the entry's config variant.
func NewNotifier(entry notify.ServiceEntry, timeout time.Duration, log logger.Logger) (Notifier, error) {
	switch cfg := entry.Config.(type) {
	case notify.ChanifyConfig:
		return NewChanifyNotifier(ChanifyOptions{
			Config:  cfg,
			Timeout: timeout,
		}, log)
	case notify.FileReporterConfig:
		return NewFileReporter(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported notify backend %T", entry.Config)
	}
}
