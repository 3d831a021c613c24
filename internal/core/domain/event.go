package domain

import (
	"strconv"
	"time"
)

// WorkflowEvent records one committed state change for the audit trail.
type WorkflowEvent struct {
	Entity     string    `json:"entity" bson:"entity"`
	EntityID   int64     `json:"entity_id" bson:"entity_id"`
	From       string    `json:"from,omitempty" bson:"from,omitempty"`
	To         string    `json:"to" bson:"to"`
	ActorID    int64     `json:"actor_id" bson:"actor_id"`
	ActorRole  Role      `json:"actor_role" bson:"actor_role"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}

// Key groups events that must be recorded in order.
func (e WorkflowEvent) Key() string {
	return e.Entity + ":" + strconv.FormatInt(e.EntityID, 10)
}
