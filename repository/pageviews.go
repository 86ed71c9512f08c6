package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogcms/models"
)

// PageViewRepository keeps per-day, per-path request counters.
type PageViewRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPageViewRepository(db *gorm.DB) *PageViewRepository {
	return &PageViewRepository{db: db, now: time.Now}
}

func localMidnight(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Record adds one hit for path today.
func (r *PageViewRepository) Record(ctx context.Context, path string) error {
	now := r.now()
	// atomic upsert; concurrent first hits of the day would otherwise collide on the unique key
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
	}).Create(&models.PageView{Date: localMidnight(now), Path: path, Count: 1}).Error
}

// Today sums every path's hits for the current day.
func (r *PageViewRepository) Today(ctx context.Context) (int64, error) {
	start := localMidnight(r.now())
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PageView{}).
		Where("date >= ? AND date < ?", start, start.Add(24*time.Hour)).
		Select("COALESCE(SUM(count), 0)").
		Scan(&n).Error
	return n, err
}

// ForPath sums all hits recorded for path.
func (r *PageViewRepository) ForPath(ctx context.Context, path string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PageView{}).
		Where("path = ?", path).
		Select("COALESCE(SUM(count), 0)").
		Scan(&n).Error
	return n, err
}
