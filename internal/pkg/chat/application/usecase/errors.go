package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

func persistErr(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
