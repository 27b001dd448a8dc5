package person

import "govinda/internal/masterdata/models"

// Query narrows a person search within a tenant. Zero values mean "no
// filter"; Limit 0 means unbounded.
type Query struct {
	Name   string
	Status models.PersonStatus
	Limit  int
	Offset int
}
