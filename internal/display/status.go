package display

import "github.com/simp-lee/ruelucas/internal/domain"

// Category is the visual tone of a badge.
type Category string

const (
	Positive Category = "positive"
	Neutral  Category = "neutral"
	Negative Category = "negative"
)

// StatusStyle is how a status value is shown.
type StatusStyle struct {
	Label    string
	Category Category
}

var reservationStyles = map[domain.ReservationStatus]StatusStyle{
	domain.ReservationPending:   {Label: "En attente", Category: Neutral},
	domain.ReservationPaid:      {Label: "Payée", Category: Positive},
	domain.ReservationCancelled: {Label: "Annulée", Category: Negative},
}

var reviewStyles = map[domain.ReviewStatus]StatusStyle{
	domain.ReviewPending:  {Label: "En attente", Category: Neutral},
	domain.ReviewApproved: {Label: "Approuvé", Category: Positive},
	domain.ReviewRejected: {Label: "Rejeté", Category: Negative},
}

// ReservationStyle returns the style of s. Values outside the taxonomy are
// shown as pending.
func ReservationStyle(s domain.ReservationStatus) StatusStyle {
	if st, ok := reservationStyles[s]; ok {
		return st
	}
	return reservationStyles[domain.ReservationPending]
}

// ReviewStyle returns the style of s. A missing or unknown status is shown as pending.
func ReviewStyle(s domain.ReviewStatus) StatusStyle {
	if st, ok := reviewStyles[s]; ok {
		return st
	}
	return reviewStyles[domain.ReviewPending]
}

// Option is one entry of a status <select>.
type Option struct {
	Value string
	Label string
}

// ReservationOptions lists the reservation taxonomy for filters and forms.
func ReservationOptions() []Option {
	out := make([]Option, 0, len(domain.ReservationStatuses))
	for _, s := range domain.ReservationStatuses {
		out = append(out, Option{Value: string(s), Label: reservationStyles[s].Label})
	}
	return out
}

// ReviewOptions lists the review taxonomy for filters and forms.
func ReviewOptions() []Option {
	out := make([]Option, 0, len(domain.ReviewStatuses))
	for _, s := range domain.ReviewStatuses {
		out = append(out, Option{Value: string(s), Label: reviewStyles[s].Label})
	}
	return out
}

// RatingCategory colours a 1..5 rating.
func RatingCategory(rating int) Category {
	switch {
	case rating >= 4:
		return Positive
	case rating >= 3:
		return Neutral
	default:
		return Negative
	}
}

// Stars renders rating as five filled or empty stars.
func Stars(rating int) string {
	rating = min(max(rating, 0), 5)
	out := make([]rune, 0, 5)
	for i := 1; i <= 5; i++ {
		if i <= rating {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}
