package service

import (
	"errors"

	"gorm.io/gorm"
)

// mapNotFound swaps gorm's not-found error for the service sentinel.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
