package database

import (
	"context"
	"fmt"

	model "auction-marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureUsers inserts users that are not present yet. Users normally come
// from the identity subsystem; this only serves demo and test setups.
func EnsureUsers(ctx context.Context, db *gorm.DB, users []model.User) error {
	if len(users) == 0 {
		return nil
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&users).Error
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	// keep the sequence ahead of explicitly chosen ids
	err = db.WithContext(ctx).Exec(
		"SELECT setval(pg_get_serial_sequence('users', 'user_id'), (SELECT COALESCE(MAX(user_id), 1) FROM users))",
	).Error
	if err != nil {
		return fmt.Errorf("failed to advance user id sequence: %w", err)
	}
	return nil
}
