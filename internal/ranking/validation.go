package ranking

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var recordValidator = validator.New(validator.WithRequiredStructEnabled())

// validateRecord checks a record against its schema tags. Repositories call it
// on every read and write so service logic only sees well formed documents.
func validateRecord(record any) error {
	if err := recordValidator.Struct(record); err != nil {
		return fmt.Errorf("%w: %T: %v", ErrInvalidRecord, record, err)
	}
	return nil
}

func validateRecords[T any](records []T) error {
	for index := range records {
		if err := validateRecord(&records[index]); err != nil {
			return err
		}
	}
	return nil
}
