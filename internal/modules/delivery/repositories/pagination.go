package repositories

import (
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps page and size to sane values.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func paginate(query *gorm.DB, page, size int) *gorm.DB {
	page, size = normalizePage(page, size)
	return query.Offset((page - 1) * size).Limit(size)
}

// like is a LIKE comparison whose pattern comes from likePattern.
const like = ` LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern. The term's own
// wildcards match literally. Callers compare it against LOWER(column) with
// `like` so the query works on both PostgreSQL and SQLite.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// TotalPages computes the page count for a total and page size.
func TotalPages(total int64, size int) int {
	_, size = normalizePage(1, size)
	pages := int(total) / size
	if int(total)%size > 0 {
		pages++
	}
	return pages
}

// NormalizePage exposes the clamping rules to the service layer so list
// responses echo the page and size actually used.
func NormalizePage(page, size int) (int, int) {
	return normalizePage(page, size)
}
