package requests

import (
	"fmt"

	"github.com/ugcstudio/backend/internal/models"
)

// Policy captures the per-kind parameters of the shared request lifecycle:
// creation cost, ticker step size, which statuses the ticker picks up, and
// whether ticker-driven completion synthesizes a placeholder file URL.
type Policy struct {
	Kind         models.RequestKind
	Cost         int
	ProgressStep int
	TickStatuses []string

	// PlaceholderURL, when non-nil, produces the file URL written by the
	// ticker when a request of this kind reaches 100% without operator
	// fulfillment. Only the editing variant carries this behavior; the ad
	// variant completes with no file URL.
	PlaceholderURL func(requestID string) string
}

var policies = map[models.RequestKind]Policy{
	models.KindAd: {
		Kind:         models.KindAd,
		Cost:         30,
		ProgressStep: 10,
		TickStatuses: []string{models.StatusPending},
	},
	models.KindEditing: {
		Kind:         models.KindEditing,
		Cost:         40,
		ProgressStep: 15,
		TickStatuses: []string{models.StatusPending, models.StatusProcessing},
		PlaceholderURL: func(requestID string) string {
			return fmt.Sprintf("/uploads/edited-%s.mp4", requestID)
		},
	},
}

// PolicyFor returns the lifecycle policy for the given kind.
func PolicyFor(kind models.RequestKind) (Policy, bool) {
	p, ok := policies[kind]
	return p, ok
}
