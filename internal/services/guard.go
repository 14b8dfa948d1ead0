package services

// Guard answers whether a presented identity may issue privileged
// commands for a poll. Anonymous actions (join, vote) never consult it.
type Guard struct {
	store Store
}

func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// VerifyOwner reports whether identity matches the poll's recorded
// owner. A missing identity or an unknown poll is unauthorized, never
// an error.
func (g *Guard) VerifyOwner(pollID, identity string) bool {
	if identity == "" {
		return false
	}

	ownerID, err := g.store.GetPollOwner(pollID)
	if err != nil {
		return false
	}
	return ownerID == identity
}
