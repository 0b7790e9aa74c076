package dispatch

// transitions enumerates every permitted status change. There are no
// incidental shortcuts: a request that skips a stage must be cancelled
// and recreated.
var transitions = map[RequestStatus][]RequestStatus{
	StatusRequested:  {StatusEnRoute, StatusCancelled},
	StatusDispatched: {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusArrived, StatusCancelled},
	StatusArrived:    {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// CanTransition reports whether from → to is a permitted status change.
// Terminal states permit nothing; the coordinator treats a repeated
// cancel as an idempotent no-op before consulting this table.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
