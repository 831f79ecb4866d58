package reservation

import (
	"context"

	"github.com/simp-lee/ruelucas/internal/capability"
	"github.com/simp-lee/ruelucas/internal/domain"
)

// Service runs reservation use cases against the remote API, gated by the
// capability registry.
type Service struct {
	repo domain.ReservationRepository
	caps *capability.Registry
}

// NewService creates a Service.
func NewService(repo domain.ReservationRepository, caps *capability.Registry) *Service {
	if repo == nil {
		panic("reservation.NewService: repository must not be nil")
	}
	if caps == nil {
		panic("reservation.NewService: capability registry must not be nil")
	}
	return &Service{repo: repo, caps: caps}
}

// List fetches one page. An unknown status filter is dropped rather than sent.
// Its signature matches collection.Fetcher.
func (s *Service) List(ctx context.Context, q domain.Query, limit int) (domain.PageResult[domain.Reservation], error) {
	if q.Status != "" && !domain.ReservationStatus(q.Status).Valid() {
		q.Status = ""
	}
	return s.repo.List(ctx, q, limit)
}

// Save creates the reservation when id is empty and updates it otherwise.
// Its signature matches editor.SaveFunc.
func (s *Service) Save(ctx context.Context, id string, d domain.ReservationDraft) error {
	action := capability.ReservationsCreate
	if id != "" {
		action = capability.ReservationsUpdate
	}
	if err := s.caps.Allow(action); err != nil {
		return err
	}

	var err error
	if id == "" {
		err = s.repo.Create(ctx, d.Payload())
	} else {
		err = s.repo.Update(ctx, id, d.Payload())
	}
	s.caps.Observe(action, err)
	return err
}

// Delete removes the reservation with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewAppError(domain.CodeValidation, "reservation id is required", nil)
	}
	if err := s.caps.Allow(capability.ReservationsDelete); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	s.caps.Observe(capability.ReservationsDelete, err)
	return err
}
