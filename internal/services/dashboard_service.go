package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/models"
)

// DashboardService aggregates the admin dashboard counters
type DashboardService struct {
	stores *database.Stores
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(stores *database.Stores) *DashboardService {
	return &DashboardService{stores: stores}
}

// Stats runs the four counts concurrently
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalCandidates, err = s.stores.Candidates.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OffersAccepted, err = s.stores.Candidates.CountOffersAccepted(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingJoining, err = s.stores.JoiningRequests.CountByStatus(ctx, models.JoiningStatusSubmitted)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalEmployees, err = s.stores.Employees.Count(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, dependency("failed to load dashboard stats", err)
	}
	return stats, nil
}
