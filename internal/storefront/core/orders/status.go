package orders

import "github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"

// transitions is the backend's table of legal moves. The storefront only
// consults it; the backend is the one that enforces it.
var transitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.StatusPending:  {entity.StatusAccepted, entity.StatusReady, entity.StatusCancelled},
	entity.StatusAccepted: {entity.StatusReady, entity.StatusCompleted},
	entity.StatusReady:    {entity.StatusCompleted, entity.StatusCancelled},
}

func CanTransition(from, to entity.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s entity.OrderStatus) bool {
	return s == entity.StatusCompleted || s == entity.StatusCancelled
}

// CanCancel decides whether the cancel action is offered at all. It is a UX
// gate; the backend validates again.
func CanCancel(s entity.OrderStatus) bool {
	return s == entity.StatusPending || s == entity.StatusReady
}

// IsPaidDisplay drives the cosmetic "paid" badge. Orders are cash on
// delivery, so this means "confirmed for fulfilment", not a captured payment.
func IsPaidDisplay(s entity.OrderStatus) bool {
	switch s {
	case entity.StatusAccepted, entity.StatusReady, entity.StatusCompleted:
		return true
	}
	return false
}

var labels = map[entity.OrderStatus]string{
	entity.StatusPending:   "Waiting for the restaurant",
	entity.StatusAccepted:  "Being prepared",
	entity.StatusReady:     "Ready for pickup",
	entity.StatusCompleted: "Delivered",
	entity.StatusCancelled: "Cancelled",
}

// Label is the user-facing copy for s. Statuses this build does not know
// about are shown verbatim.
func Label(s entity.OrderStatus) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}
