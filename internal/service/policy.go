package service

import (
	"github.com/taskledger/taskledger-api/internal/models"
)

// Access policy: coarse role checks plus fine-grained ownership rules.
// Deletion is deliberately stricter than read/update — an assignee may
// work a task but only its creator (or an admin) may delete it.

// IsAdmin reports whether the identity carries the ADMIN role. The switch
// is exhaustive over the closed role enum; unknown roles never pass.
func IsAdmin(user models.User) bool {
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}

// RequireAdmin returns ErrForbidden unless the identity is an admin.
func RequireAdmin(user models.User) error {
	if !IsAdmin(user) {
		return ErrForbidden
	}
	return nil
}

// CanViewTask allows the admin, the creator, and the assignee.
func CanViewTask(user models.User, task models.Task) bool {
	if IsAdmin(user) {
		return true
	}
	if task.CreatedByID == user.ID {
		return true
	}
	return task.AssignedToID != nil && *task.AssignedToID == user.ID
}

// CanUpdateTask follows the same rule as viewing: creator or assignee.
func CanUpdateTask(user models.User, task models.Task) bool {
	return CanViewTask(user, task)
}

// CanDeleteTask requires a strict creator match; assignment alone does
// not grant deletion.
func CanDeleteTask(user models.User, task models.Task) bool {
	if IsAdmin(user) {
		return true
	}
	return task.CreatedByID == user.ID
}

// RequireActivationToggle rejects activation or deactivation of ADMIN
// accounts, a safety rail against accidental lockout.
func RequireActivationToggle(target models.User) error {
	if IsAdmin(target) {
		return ErrCannotToggleAdmin
	}
	return nil
}
