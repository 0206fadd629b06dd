package usecase

import "fmt"

// ErrPersistence indicates a repository failure inside a relation use case.
var ErrPersistence = fmt.Errorf("relation use case persistence error")
