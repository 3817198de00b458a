package health

import (
	"context"

	"github.com/arimxyer/vaultkeeper/internal/auditlog"
)

// AuditChecker checks that the audit log can be opened (and, if it
// already has entries, that none show tamper evidence).
type AuditChecker struct {
	path      string
	masterKey []byte
}

// NewAuditChecker creates an audit checker for path. masterKey may be
// nil, in which case only file accessibility is checked.
func NewAuditChecker(path string, masterKey []byte) HealthChecker {
	return &AuditChecker{path: path, masterKey: masterKey}
}

func (a *AuditChecker) Name() string { return "audit" }

func (a *AuditChecker) Run(ctx context.Context) CheckResult {
	details := AuditCheckDetails{Path: a.path}

	if a.path == "" {
		return CheckResult{
			Name:    a.Name(),
			Status:  CheckWarning,
			Message: "no audit log path configured; operations are not being recorded to disk",
			Details: details,
		}
	}

	key := a.masterKey
	if len(key) == 0 {
		key = make([]byte, 32)
	}

	logger, err := auditlog.Open(a.path, key)
	if err != nil {
		details.Error = err.Error()
		return CheckResult{Name: a.Name(), Status: CheckError, Message: "audit log could not be opened", Details: details}
	}
	details.Opened = true

	if len(a.masterKey) > 0 {
		for _, e := range logger.Query("", 0) {
			if e.TamperDetected {
				return CheckResult{
					Name:           a.Name(),
					Status:         CheckError,
					Message:        "audit log contains at least one entry that fails signature verification",
					Recommendation: "treat the audit trail as untrusted from that entry forward",
					Details:        details,
				}
			}
		}
	}

	return CheckResult{Name: a.Name(), Status: CheckPass, Message: "audit log is openable and its entries verify", Details: details}
}
