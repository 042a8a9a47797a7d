package repository

import (
	"errors"
	"fmt"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

// ErrInvalidRow is returned when a row read from the database does not
// satisfy its model's validate tags.
var ErrInvalidRow = errors.New("row failed validation")

func validRow(table string, row interface{}) error {
	if err := model.Validate(row); err != nil {
		logger.Error("Row failed validation", err, map[string]interface{}{
			"table": table,
		})
		return fmt.Errorf("%w: %s: %v", ErrInvalidRow, table, err)
	}
	return nil
}

func validRows[T any](table string, rows []T) error {
	for i := range rows {
		if err := validRow(table, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
