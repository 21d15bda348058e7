package retention

import (
	"fmt"
	"time"

	"seedkeeper/internal/tracker"
)

const secondsPerDay = 86400

// Policy holds the seeding-economics thresholds.
type Policy struct {
	MinAge     time.Duration
	MinAvgRate int64 // bytes per second
}

// Decision is the derived verdict for one torrent at one instant.
type Decision struct {
	Keep    bool
	Reason  string
	Age     int64 // seconds since completion
	AvgRate int64 // bytes per second over Age
}

// Decide classifies t at now. A torrent younger than MinAge is always kept.
// At or past MinAge it is kept while its average upload rate is at least
// MinAvgRate; an age exactly equal to MinAge is therefore judged on rate.
func (p Policy) Decide(t tracker.Torrent, now time.Time) Decision {
	age := now.Unix() - t.CompletionOn
	minAge := int64(p.MinAge / time.Second)

	if age < minAge {
		return Decision{
			Keep:   true,
			Reason: fmt.Sprintf("Seeding (%d days left)", (minAge-age)/secondsPerDay),
			Age:    age,
		}
	}

	var avg int64
	if age > 0 {
		avg = t.Uploaded / age
	}
	if avg >= p.MinAvgRate {
		return Decision{
			Keep:    true,
			Reason:  fmt.Sprintf("Seeding (active, avg %d KB/s)", avg/1024),
			Age:     age,
			AvgRate: avg,
		}
	}
	return Decision{
		Keep:    false,
		Reason:  fmt.Sprintf("Removing (%dd seeding, avg %d KB/s < %d KB/s)", age/secondsPerDay, avg/1024, p.MinAvgRate/1024),
		Age:     age,
		AvgRate: avg,
	}
}
