package service

import "errors"

// Sentinel errors shared across services. Handlers map them onto HTTP
// status codes with errors.Is; the split between unauthenticated and
// forbidden is deliberate and must stay observable (401 vs 403).
var (
	// ErrUnauthenticated covers missing, malformed, expired tokens and
	// unknown subjects. Callers learn nothing beyond "not valid".
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so login never reveals whether an email exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive means the token was valid and the subject known,
	// but the account has been deactivated.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrForbidden means the identity lacks the privilege for the action.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrAuditScopeForbidden is returned when a non-admin requests another
	// actor's audit records.
	ErrAuditScopeForbidden = errors.New("you can only view your own audit logs")

	// ErrCannotToggleAdmin guards against locking out administrators.
	ErrCannotToggleAdmin = errors.New("admin accounts cannot be deactivated")

	ErrEmailTaken       = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrAuditLogNotFound = errors.New("audit log not found")
)
