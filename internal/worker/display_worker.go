package worker

import (
	"github.com/spec-kit/queue-service/internal/service"
)

// StartDisplayWorker registers display board fan-out handlers.
func StartDisplayWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
