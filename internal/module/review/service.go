package review

import (
	"context"

	"github.com/simp-lee/ruelucas/internal/capability"
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Service runs review use cases against the remote API, gated by the
// capability registry.
type Service struct {
	repo domain.ReviewRepository
	caps *capability.Registry
}

// NewService creates a Service.
func NewService(repo domain.ReviewRepository, caps *capability.Registry) *Service {
	if repo == nil {
		panic("review.NewService: repository must not be nil")
	}
	if caps == nil {
		panic("review.NewService: capability registry must not be nil")
	}
	return &Service{repo: repo, caps: caps}
}

// List fetches every review, filters them by author/comment text and
// status, and cuts out one page. Reviews without a status count as pending.
func (s *Service) List(ctx context.Context, q domain.Query, limit int) (domain.PageResult[domain.Review], error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.PageResult[domain.Review]{}, err
	}

	status := domain.ReviewStatus(q.Status)
	if !status.Valid() {
		status = ""
	}
	filtered := make([]domain.Review, 0, len(all))
	for _, r := range all {
		if !r.Matches(q.Search) {
			continue
		}
		if status != "" && r.EffectiveStatus() != status {
			continue
		}
		filtered = append(filtered, r)
	}
	return pkg.BuildPage(ctx, filtered, q.Page, limit)
}

// Save creates the review when id is empty and updates it otherwise.
func (s *Service) Save(ctx context.Context, id string, d domain.ReviewDraft) error {
	action := capability.ReviewsCreate
	if id != "" {
		action = capability.ReviewsUpdate
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

// Delete removes the review with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewAppError(domain.CodeValidation, "review id is required", nil)
	}
	if err := s.caps.Allow(capability.ReviewsDelete); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	s.caps.Observe(capability.ReviewsDelete, err)
	return err
}
