package domain

import "strings"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusReady, StatusCancelled},
	StatusAccepted: {StatusReady, StatusCompleted},
	StatusReady:    {StatusCompleted, StatusCancelled},
}

// CanTransition is the authoritative table of legal status moves.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusAccepted, StatusReady, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}
