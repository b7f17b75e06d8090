package orders

import "justEatMore/domain"

// transitions lists the statuses each status may move to. Cancelled has no
// way out; completed may still be cancelled as a refund.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusPendingApproval: {domain.StatusApproved, domain.StatusCancelled},
	domain.StatusApproved:        {domain.StatusPaymentUploaded, domain.StatusCancelled},
	domain.StatusPaymentUploaded: {domain.StatusPaymentVerified, domain.StatusCancelled},
	domain.StatusPaymentVerified: {domain.StatusProcessing, domain.StatusCancelled},
	domain.StatusProcessing:      {domain.StatusCompleted, domain.StatusCancelled},
	domain.StatusCompleted:       {domain.StatusCancelled},
}

func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to domain.OrderStatus) error {
	if !CanTransition(from, to) {
		return &domain.TransitionError{From: from, To: to}
	}
	return nil
}
