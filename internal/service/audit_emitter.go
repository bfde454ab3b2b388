package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/taskledger/taskledger-api/internal/models"
)

// RequestMeta carries the network origin of a request. Both fields are
// optional; events that do not originate from HTTP leave them empty and
// the ledger stores nothing rather than guessing.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditEntry is the emitter's input: everything needed to build one
// immutable ledger row. The actor email is snapshotted from the identity
// at entry-construction time.
type AuditEntry struct {
	Actor        models.User
	EventType    models.EventType
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Changes      map[string]interface{}
	Metadata     map[string]interface{}
	Status       string
	Meta         RequestMeta
}

// NewRegistrationEntry records a new account.
func NewRegistrationEntry(user models.User, meta RequestMeta) AuditEntry {
	id := user.ID
	return AuditEntry{
		Actor:        user,
		EventType:    models.EventUserRegister,
		Action:       fmt.Sprintf("New user registered: %s", user.Email),
		ResourceType: "user",
		ResourceID:   &id,
		Status:       models.AuditStatusSuccess,
		Meta:         meta,
	}
}

// NewLoginEntry records a login attempt. The failed variant keeps the
// attempted identity as actor so the trail shows whose credentials were
// tried.
func NewLoginEntry(user models.User, meta RequestMeta, success bool) AuditEntry {
	entry := AuditEntry{
		Actor:     user,
		EventType: models.EventUserLogin,
		Action:    "Successful login",
		Status:    models.AuditStatusSuccess,
		Meta:      meta,
	}
	if !success {
		entry.EventType = models.EventUserLoginFailed
		entry.Action = "Failed login attempt"
		entry.Status = models.AuditStatusFailure
	}
	return entry
}

// NewLogoutEntry records a logout. Tokens are stateless, so this is the
// only server-side trace a logout leaves.
func NewLogoutEntry(user models.User, meta RequestMeta) AuditEntry {
	return AuditEntry{
		Actor:     user,
		EventType: models.EventUserLogout,
		Action:    "User logged out",
		Status:    models.AuditStatusSuccess,
		Meta:      meta,
	}
}

// NewTaskCreateEntry records a task creation.
func NewTaskCreateEntry(actor models.User, task models.Task, meta RequestMeta) AuditEntry {
	id := task.ID
	return AuditEntry{
		Actor:        actor,
		EventType:    models.EventTaskCreate,
		Action:       fmt.Sprintf("Created task '%s'", task.Title),
		ResourceType: "task",
		ResourceID:   &id,
		Metadata: map[string]interface{}{
			"task_title":    task.Title,
			"task_status":   string(task.Status),
			"task_priority": string(task.Priority),
		},
		Status: models.AuditStatusSuccess,
		Meta:   meta,
	}
}

// NewTaskUpdateEntry records a task update with its field diff.
func NewTaskUpdateEntry(actor models.User, task models.Task, changes map[string]interface{}, meta RequestMeta) AuditEntry {
	id := task.ID
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return AuditEntry{
		Actor:        actor,
		EventType:    models.EventTaskUpdate,
		Action:       fmt.Sprintf("Updated task '%s' (%s)", task.Title, strings.Join(fields, ", ")),
		ResourceType: "task",
		ResourceID:   &id,
		Changes:      changes,
		Metadata:     map[string]interface{}{"task_title": task.Title},
		Status:       models.AuditStatusSuccess,
		Meta:         meta,
	}
}

// NewTaskAssignEntry records an assignee change.
func NewTaskAssignEntry(actor models.User, task models.Task, meta RequestMeta) AuditEntry {
	id := task.ID
	metadata := map[string]interface{}{"task_title": task.Title}
	if task.AssignedToID != nil {
		metadata["assigned_to_id"] = task.AssignedToID.String()
	}

	return AuditEntry{
		Actor:        actor,
		EventType:    models.EventTaskAssign,
		Action:       fmt.Sprintf("Assigned task '%s'", task.Title),
		ResourceType: "task",
		ResourceID:   &id,
		Metadata:     metadata,
		Status:       models.AuditStatusSuccess,
		Meta:         meta,
	}
}

// NewTaskDeleteEntry records a task deletion.
func NewTaskDeleteEntry(actor models.User, task models.Task, meta RequestMeta) AuditEntry {
	id := task.ID
	return AuditEntry{
		Actor:        actor,
		EventType:    models.EventTaskDelete,
		Action:       fmt.Sprintf("Deleted task '%s'", task.Title),
		ResourceType: "task",
		ResourceID:   &id,
		Metadata: map[string]interface{}{
			"task_title":  task.Title,
			"task_status": string(task.Status),
		},
		Status: models.AuditStatusSuccess,
		Meta:   meta,
	}
}

// TaskChanges diffs a before snapshot against the post-mutation state and
// returns a field -> {old,new} map holding only the fields whose values
// actually differ. An empty map means nothing changed.
func TaskChanges(before, after models.Task) map[string]interface{} {
	changes := map[string]interface{}{}

	diff := func(field string, old, new interface{}) {
		if old != new {
			changes[field] = map[string]interface{}{"old": old, "new": new}
		}
	}

	diff("title", before.Title, after.Title)
	diff("description", before.Description, after.Description)
	diff("status", string(before.Status), string(after.Status))
	diff("priority", string(before.Priority), string(after.Priority))
	diff("assigned_to_id", assigneeValue(before.AssignedToID), assigneeValue(after.AssignedToID))

	return changes
}

func assigneeValue(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}
