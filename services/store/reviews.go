package store

import (
	"sync"

	"github.com/google/uuid"
)

// Reviews are a shared, app-wide list rather than per-session state: every
// signed-in user sees the same trust-center feed.

var (
	reviewMu sync.Mutex
	reviews  = []Review{
		{
			ID:         "1",
			DonorName:  "Gates Foundation (Verified)",
			DonorType:  "Foundation",
			Rating:     5,
			Comment:    "Exceptional transparency and measurable impact reporting. Highly recommended for long-term partnership.",
			Date:       "2 months ago",
			IsVerified: true,
		},
		{
			ID:         "2",
			DonorName:  "Regional Arts Council",
			DonorType:  "Government",
			Rating:     4,
			Comment:    "Great community engagement. Financial disclosures were prompt and accurate.",
			Date:       "5 months ago",
			IsVerified: true,
		},
	}
)

// Reviews returns the trust-center feed, newest first.
func Reviews() []Review {
	reviewMu.Lock()
	defer reviewMu.Unlock()
	out := make([]Review, len(reviews))
	copy(out, reviews)
	return out
}

// AddReview prepends an unverified user-submitted review.
func AddReview(rating int, comment string) Review {
	review := Review{
		ID:        uuid.NewString(),
		DonorName: "Independent Donor",
		DonorType: "Individual",
		Rating:    rating,
		Comment:   comment,
		Date:      "Just now",
	}
	reviewMu.Lock()
	defer reviewMu.Unlock()
	reviews = append([]Review{review}, reviews...)
	return review
}
