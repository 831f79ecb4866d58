package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

const reservationsPath = "/reservations"

// reservationRepository implements domain.ReservationRepository over the remote API.
type reservationRepository struct {
	c *Client
}

// NewReservationRepository creates a ReservationRepository backed by c.
func NewReservationRepository(c *Client) domain.ReservationRepository {
	return &reservationRepository{c: c}
}

// reservationPage mirrors the list response. Pointers tell a missing field
// apart from a zero value.
type reservationPage struct {
	Items *[]domain.Reservation `json:"items"`
	Total *int                  `json:"total"`
	Page  int                   `json:"page"`
	Pages int                   `json:"pages"`
}

// List fetches one page of reservations. The page count is recomputed from
// total and limit so the view never disagrees with its own arithmetic; the
// page number and page count echoed by the API are ignored.
func (r *reservationRepository) List(ctx context.Context, q domain.Query, limit int) (domain.PageResult[domain.Reservation], error) {
	if limit <= 0 {
		limit = pkg.DefaultPageSize
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(q.Page, 1)))
	params.Set("limit", strconv.Itoa(limit))
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}

	var body reservationPage
	if err := r.c.do(ctx, call{method: http.MethodGet, path: reservationsPath, query: params, out: &body}); err != nil {
		return domain.PageResult[domain.Reservation]{}, err
	}
	if body.Items == nil || body.Total == nil || *body.Total < 0 {
		return domain.PageResult[domain.Reservation]{}, domain.NewAppError(domain.CodeShape, "unexpected response from remote api", nil)
	}

	items := *body.Items
	if items == nil {
		items = []domain.Reservation{}
	}
	return pkg.ServerPage(ctx, items, *body.Total, q.Page, limit)
}

// Create posts a new reservation.
func (r *reservationRepository) Create(ctx context.Context, p domain.ReservationPayload) error {
	return r.c.do(ctx, call{method: http.MethodPost, path: reservationsPath, body: p, mutation: true})
}

// Update replaces the reservation with the given id.
func (r *reservationRepository) Update(ctx context.Context, id string, p domain.ReservationPayload) error {
	return r.c.do(ctx, call{method: http.MethodPut, path: reservationsPath + "/" + url.PathEscape(id), body: p, mutation: true})
}

// Delete removes the reservation with the given id.
func (r *reservationRepository) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, call{method: http.MethodDelete, path: reservationsPath + "/" + url.PathEscape(id), mutation: true})
}
