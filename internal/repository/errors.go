package repository

import "errors"

// ErrNotFound is a repository-specific sentinel error. It is returned when a
// query for a single entity finds no rows, or when an update or delete scoped
// by owner touches nothing.
//
// The service layer checks for this error and translates it into a
// domain-level error, keeping business logic decoupled from the database
// driver's error values (e.g. `sql.ErrNoRows`).
var ErrNotFound = errors.New("repository: not found")
