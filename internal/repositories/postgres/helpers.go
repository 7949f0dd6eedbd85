package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/repositories"
)

const (
	defaultListLimit = 1000
	maxListLimit     = 10000
)

// getDB returns tx when the caller runs inside a transaction.
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// applyResultFilters narrows an exercise_results query. It does not paginate.
func applyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.StudentID != "" {
		query = query.Where("student_id = ?", filters.StudentID)
	}
	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at < ?", *filters.DateTo)
	}
	return query
}

// applyPaginationAndSort orders results by completion time. Ties fall back to
// id so pages are stable.
func applyPaginationAndSort(query *gorm.DB, sortOrder string, limit, offset int) *gorm.DB {
	order := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		order = "DESC"
	}
	query = query.Order("completed_at " + order).Order("id " + order)

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	query = query.Limit(limit)

	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
