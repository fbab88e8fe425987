package closure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service is the closure registry: clinic-wide blackout periods keyed by
// date, queried by the booking engine before every booking.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindClosure returns the closure for a date, or nil when the clinic is
// open that day.
func (s *Service) FindClosure(ctx context.Context, date string) (*Closure, error) {
	c, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, ErrClosureNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find closure: %w", err)
	}
	return c, nil
}

type AddClosureParams struct {
	Date      string
	IsFullDay bool
	StartTime *string
	EndTime   *string
	Type      Type
	Reason    string
}

func (s *Service) AddClosure(ctx context.Context, p AddClosureParams) (*Closure, error) {
	if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		return nil, fmt.Errorf("invalid closure date %q: %w", p.Date, err)
	}
	if !p.IsFullDay {
		if p.StartTime == nil || p.EndTime == nil {
			return nil, errors.New("partial closure requires start_time and end_time")
		}
		if *p.EndTime < *p.StartTime {
			return nil, errors.New("closure end_time precedes start_time")
		}
	}
	if p.Type == "" {
		p.Type = TypeOther
	}

	c := &Closure{
		ID:        uuid.New(),
		Date:      p.Date,
		IsFullDay: p.IsFullDay,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Type:      p.Type,
		Reason:    p.Reason,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateClosure) {
			return nil, err
		}
		return nil, fmt.Errorf("create closure: %w", err)
	}

	return c, nil
}

func (s *Service) RemoveClosure(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrClosureNotFound) {
			return err
		}
		return fmt.Errorf("delete closure: %w", err)
	}
	return nil
}

func (s *Service) ListClosures(ctx context.Context) ([]Closure, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list closures: %w", err)
	}
	return list, nil
}
