package audit

import (
	"context"
	"time"

	"testament/pkg/domain"
)

// Topic groups events the way external indexers subscribe to them.
type Topic string

const (
	// TopicBeneficiary covers beneficiary-set mutations ("BENEFIC").
	TopicBeneficiary Topic = "BENEFIC"
	// TopicPlan covers plan lifecycle events ("PLAN").
	TopicPlan Topic = "PLAN"
)

// Actions within a topic.
const (
	ActionAdd    = "ADD"
	ActionRemove = "REMOVE"
	ActionCreate = "CREATE"
)

// Event is recorded after a successful mutation, never before and never on
// a failed call. Keep it transport-agnostic so stores and sinks can fan
// out: the same record feeds log lines, the outbox table, and Kafka.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	Topic     Topic         `json:"topic"`
	Action    string        `json:"action"`
	PlanID    domain.PlanID `json:"plan_id"`

	// HashedEmail is the hex digest of the added beneficiary's email.
	// Only set for beneficiary adds; the plaintext never reaches the
	// event stream.
	HashedEmail string `json:"hashed_email,omitempty"`

	// Index is the removed beneficiary's position. -1 when not applicable.
	Index int `json:"index"`

	AllocationBP int    `json:"allocation_bp,omitempty"`
	ActorID      string `json:"actor_id,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// BeneficiaryAdded builds the ("BENEFIC","ADD") event payload.
func BeneficiaryAdded(planID domain.PlanID, hashedEmail string, allocationBP int) Event {
	return Event{
		Topic:        TopicBeneficiary,
		Action:       ActionAdd,
		PlanID:       planID,
		HashedEmail:  hashedEmail,
		Index:        -1,
		AllocationBP: allocationBP,
	}
}

// BeneficiaryRemoved builds the ("BENEFIC","REMOVE") event payload.
func BeneficiaryRemoved(planID domain.PlanID, index int, allocationBP int) Event {
	return Event{
		Topic:        TopicBeneficiary,
		Action:       ActionRemove,
		PlanID:       planID,
		Index:        index,
		AllocationBP: allocationBP,
	}
}

// PlanCreated builds the ("PLAN","CREATE") event payload.
func PlanCreated(planID domain.PlanID, owner domain.AccountID) Event {
	return Event{
		Topic:   TopicPlan,
		Action:  ActionCreate,
		PlanID:  planID,
		Index:   -1,
		ActorID: owner.String(),
	}
}

// Store is the event sink contract. Append must only be called after the
// mutation it describes has committed.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPlan(ctx context.Context, planID domain.PlanID) ([]Event, error)
}
