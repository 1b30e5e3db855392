package worker

import (
	"github.com/spec-kit/segnala-service/internal/service"
)

// StartLifecycleWorker registers lifecycle event handlers.
func StartLifecycleWorker(observer *service.LifecycleObserver) {
	if observer == nil {
		return
	}
	observer.RegisterHandlers()
}
