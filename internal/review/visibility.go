package review

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"reviewant/internal/constants"
	"reviewant/internal/domain"
)

// Visible keeps the reviews whose scheduled post time is unset or not after
// now, most recent first. Reviews created at the same instant keep their
// input order.
func Visible(all []domain.Review, now time.Time) []domain.Review {
	out := make([]domain.Review, 0, len(all))
	for _, r := range all {
		if r.VisibleAt(now) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Average is the mean rating of a visible set, or "N/A" when the set is empty.
type Average struct {
	Value float64
	Valid bool
}

const notAvailable = "N/A"

// AverageOf returns the arithmetic mean rounded to one decimal place.
func AverageOf(visible []domain.Review) Average {
	if len(visible) == 0 {
		return Average{}
	}
	sum := 0
	for _, r := range visible {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(visible))
	return Average{Value: math.Round(mean*10) / 10, Valid: true}
}

func (a Average) String() string {
	if !a.Valid {
		return notAvailable
	}
	return strconv.FormatFloat(a.Value, 'f', 1, 64)
}

func (a Average) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Average) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == notAvailable {
		*a = Average{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid average %q: %w", s, err)
	}
	*a = Average{Value: v, Valid: true}
	return nil
}

type Summary struct {
	Visible []domain.Review
	Average Average
	Hidden  int // scheduled for later
}

func Summarize(all []domain.Review, now time.Time) Summary {
	visible := Visible(all, now)
	return Summary{
		Visible: visible,
		Average: AverageOf(visible),
		Hidden:  len(all) - len(visible),
	}
}

// Reviewer is the name shown next to a review; anonymous reviews show a
// fixed placeholder.
func Reviewer(r domain.Review) string {
	if r.UserID == nil || r.Username == "" {
		return constants.AnonymousReviewer
	}
	return r.Username
}
