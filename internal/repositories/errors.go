package repositories

import "errors"

// ErrNotFound is returned by repositories when the requested row does not
// exist. Callers compare with errors.Is and never see gorm errors.
var ErrNotFound = errors.New("record not found")
