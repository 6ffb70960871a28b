package worker

import (
	"github.com/spec-kit/savings-portal/internal/service"
)

// StartSessionAuditWorker registers the session audit handlers. Handlers
// run synchronously on the publishing goroutine.
func StartSessionAuditWorker(audit *service.SessionAuditService) {
	if audit == nil {
		return
	}
	audit.RegisterHandlers()
}
