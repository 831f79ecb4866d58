package domain

import (
	"context"
	"strings"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewStatuses lists the taxonomy in display order.
var ReviewStatuses = []ReviewStatus{ReviewPending, ReviewApproved, ReviewRejected}

// Valid reports whether s belongs to the review taxonomy.
func (s ReviewStatus) Valid() bool {
	for _, v := range ReviewStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Review is a guest review as returned by the remote API. Status is absent
// on reviews that were never moderated.
type Review struct {
	ID      string       `json:"_id"`
	Author  string       `json:"author"`
	Rating  int          `json:"rating"`
	Comment string       `json:"comment"`
	Date    string       `json:"date"`
	Status  ReviewStatus `json:"status,omitempty"`
}

// EffectiveStatus treats a missing status as pending.
func (r Review) EffectiveStatus() ReviewStatus {
	if r.Status == "" {
		return ReviewPending
	}
	return r.Status
}

// ReviewDraft is the editable form state of a review.
type ReviewDraft struct {
	Author  string       `json:"author" form:"author" validate:"required,max=200"`
	Rating  int          `json:"rating" form:"rating" validate:"min=1,max=5"`
	Comment string       `json:"comment" form:"comment" validate:"required,max=5000"`
	Status  ReviewStatus `json:"status" form:"status" validate:"oneof=pending approved rejected"`
}

// ReviewPayload is the JSON body of POST/PUT /api/reviews.
type ReviewPayload struct {
	Author  string       `json:"author"`
	Rating  int          `json:"rating"`
	Comment string       `json:"comment"`
	Status  ReviewStatus `json:"status,omitempty"`
}

// ReviewRepository is the remote collection of reviews. The remote API
// returns every review at once; paging happens on this side.
type ReviewRepository interface {
	List(ctx context.Context) ([]Review, error)
	Create(ctx context.Context, p ReviewPayload) error
	Update(ctx context.Context, id string, p ReviewPayload) error
	Delete(ctx context.Context, id string) error
}

// DefaultReviewDraft returns the blank draft used when creating.
func DefaultReviewDraft() ReviewDraft {
	return ReviewDraft{
		Rating: 5,
		Status: ReviewPending,
	}
}

// SeedReviewDraft builds a draft from an existing review.
func SeedReviewDraft(r Review) ReviewDraft {
	return ReviewDraft{
		Author:  r.Author,
		Rating:  r.Rating,
		Comment: r.Comment,
		Status:  r.EffectiveStatus(),
	}
}

// Normalize trims free-text fields.
func (d ReviewDraft) Normalize() ReviewDraft {
	d.Author = strings.TrimSpace(d.Author)
	d.Comment = strings.TrimSpace(d.Comment)
	return d
}

// Payload converts the draft to the remote API body.
func (d ReviewDraft) Payload() ReviewPayload {
	return ReviewPayload{
		Author:  d.Author,
		Rating:  d.Rating,
		Comment: d.Comment,
		Status:  d.Status,
	}
}

// Matches reports whether the review contains search in its author or comment,
// case-insensitively.
func (r Review) Matches(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Author), search) ||
		strings.Contains(strings.ToLower(r.Comment), search)
}
