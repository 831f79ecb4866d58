package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/simp-lee/ruelucas/internal/domain"
)

const reviewsPath = "/api/reviews"

// reviewRepository implements domain.ReviewRepository over the remote API.
type reviewRepository struct {
	c *Client
}

// NewReviewRepository creates a ReviewRepository backed by c.
func NewReviewRepository(c *Client) domain.ReviewRepository {
	return &reviewRepository{c: c}
}

// List fetches every review. The endpoint answers with a bare JSON array;
// anything else, including null, is a shape error.
func (r *reviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	var reviews []domain.Review
	if err := r.c.do(ctx, call{method: http.MethodGet, path: reviewsPath, out: &reviews}); err != nil {
		return nil, err
	}
	if reviews == nil {
		return nil, domain.NewAppError(domain.CodeShape, "unexpected response from remote api", nil)
	}
	return reviews, nil
}

// Create posts a new review.
func (r *reviewRepository) Create(ctx context.Context, p domain.ReviewPayload) error {
	return r.c.do(ctx, call{method: http.MethodPost, path: reviewsPath, body: p, mutation: true})
}

// Update replaces the review with the given id.
func (r *reviewRepository) Update(ctx context.Context, id string, p domain.ReviewPayload) error {
	return r.c.do(ctx, call{method: http.MethodPut, path: reviewsPath + "/" + url.PathEscape(id), body: p, mutation: true})
}

// Delete removes the review with the given id.
func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, call{method: http.MethodDelete, path: reviewsPath + "/" + url.PathEscape(id), mutation: true})
}
