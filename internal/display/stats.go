package display

import (
	"time"

	"github.com/simp-lee/ruelucas/internal/domain"
)

// ReservationCounts summarizes reservations. Total comes from the server;
// the per-status counts only cover the loaded page.
type ReservationCounts struct {
	Total     int
	OnPage    int
	Pending   int
	Paid      int
	Cancelled int
}

// CountReservations computes ReservationCounts over one page.
func CountReservations(page domain.PageResult[domain.Reservation]) ReservationCounts {
	c := ReservationCounts{Total: page.Total, OnPage: len(page.Items)}
	for _, r := range page.Items {
		switch r.Status {
		case domain.ReservationPaid:
			c.Paid++
		case domain.ReservationCancelled:
			c.Cancelled++
		default:
			c.Pending++
		}
	}
	return c
}

// RatingBar is one row of the rating histogram.
type RatingBar struct {
	Rating  int
	Count   int
	Percent int
}

// ReviewStats summarizes the reviews of one page.
type ReviewStats struct {
	Total     int
	OnPage    int
	Average   float64
	Excellent int
	ThisMonth int
	Histogram []RatingBar
}

// SummarizeReviews computes ReviewStats over items. total is the size of the
// whole filtered collection; everything else is page-local. ThisMonth counts
// reviews dated in the same calendar month and year as now.
func SummarizeReviews(items []domain.Review, total int, now time.Time) ReviewStats {
	s := ReviewStats{Total: total, OnPage: len(items)}

	var counts [6]int
	sum := 0
	for _, r := range items {
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			counts[r.Rating]++
		}
		if t, err := ParseDate(r.Date); err == nil {
			t = t.In(now.Location())
			if t.Year() == now.Year() && t.Month() == now.Month() {
				s.ThisMonth++
			}
		}
	}
	if len(items) > 0 {
		s.Average = float64(sum) / float64(len(items))
	}
	s.Excellent = counts[5]

	s.Histogram = make([]RatingBar, 0, 5)
	for rating := 5; rating >= 1; rating-- {
		bar := RatingBar{Rating: rating, Count: counts[rating]}
		if len(items) > 0 {
			bar.Percent = counts[rating] * 100 / len(items)
		}
		s.Histogram = append(s.Histogram, bar)
	}
	return s
}

// RoundedAverage is the average rounded to the nearest whole star.
func (s ReviewStats) RoundedAverage() int {
	return int(s.Average + 0.5)
}
