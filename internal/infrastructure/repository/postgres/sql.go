package postgres

import (
	"database/sql"
	"time"
)

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
