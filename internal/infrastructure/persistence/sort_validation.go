package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// JobSortFields contains allowed sort fields for marketplace jobs
var JobSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"priority":     true,
	"status":       true,
	"action":       true,
	"marketplace":  true,
	"started_at":   true,
	"completed_at": true,
}

// BatchSortFields contains allowed sort fields for batch jobs
var BatchSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"status":          true,
	"total_count":     true,
	"completed_count": true,
	"failed_count":    true,
	"completed_at":    true,
}
