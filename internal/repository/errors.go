package repository

import "errors"

// ErrNotFound is a repository-specific sentinel error. It is returned when a
// statement addressing a single entity (e.g. DeleteDocument) matches no rows.
//
// The service layer translates it into app_errors.ErrNotFound so business logic
// never sees sql.ErrNoRows.
var ErrNotFound = errors.New("repository: not found")
