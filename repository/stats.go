package repository

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
)

// AdminStats are the dashboard counters.
type AdminStats struct {
	Posts          int64 `json:"posts"`
	PublishedPosts int64 `json:"publishedPosts"`
	Users          int64 `json:"users"`
	Comments       int64 `json:"comments"`
	Subscribers    int64 `json:"subscribers"`
	PageViewsToday int64 `json:"pageViewsToday"`
}

// StatsRepository aggregates counts across tables.
type StatsRepository struct {
	db  *gorm.DB
	pvs *PageViewRepository
}

func NewStatsRepository(db *gorm.DB, pvs *PageViewRepository) *StatsRepository {
	return &StatsRepository{db: db, pvs: pvs}
}

// Admin runs the independent counts concurrently and joins them.
func (r *StatsRepository) Admin(ctx context.Context) (*AdminStats, error) {
	var s AdminStats
	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, model interface{}, where ...interface{}) {
		g.Go(func() error {
			q := r.db.WithContext(ctx).Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			return q.Count(dst).Error
		})
	}
	count(&s.Posts, &models.Post{})
	count(&s.PublishedPosts, &models.Post{}, "status = ?", models.StatusPublished)
	count(&s.Users, &models.User{})
	count(&s.Comments, &models.Comment{})
	count(&s.Subscribers, &models.Newsletter{})
	if r.pvs != nil {
		g.Go(func() error {
			n, err := r.pvs.Today(ctx)
			s.PageViewsToday = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
