package statemachine

import (
	"errors"

	"truckdrive-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor string // "driver" or "admin"
}

// validTransitions is the authoritative state machine definition.
// COMPLETED is terminal: driver earnings and lifetime counters are
// updated on entry, so nothing may leave it.
var validTransitions = []Transition{
	// Driver starts the run
	{From: models.DeliveryAssigned, To: models.DeliveryInTransit, Actor: "driver"},
	// Driver finishes the run
	{From: models.DeliveryInTransit, To: models.DeliveryCompleted, Actor: "driver"},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.DeliveryStatus) []models.DeliveryStatus {
	var nexts []models.DeliveryStatus
	seen := map[models.DeliveryStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.DeliveryStatus, actor string) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.DeliveryStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
