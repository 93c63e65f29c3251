package domain

// SyncState tracks whether a mirrored record has reached the server.
type SyncState string

const (
	SyncPendingLocal    SyncState = "pending-local"
	SyncConfirmedRemote SyncState = "confirmed-remote"
)

// MirroredReview is a review as held by the client, with its sync state.
type MirroredReview struct {
	Review
	Sync SyncState `json:"syncState"`
}

// Pending reports whether the review still has to be pushed to the server.
func (m MirroredReview) Pending() bool {
	return m.Sync == SyncPendingLocal
}

// Confirmed wraps reviews as confirmed-remote records.
func Confirmed(reviews []Review) []MirroredReview {
	out := make([]MirroredReview, len(reviews))
	for i, r := range reviews {
		out[i] = MirroredReview{Review: r, Sync: SyncConfirmedRemote}
	}
	return out
}
