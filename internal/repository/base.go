package repository

import "gorm.io/gorm"

// ErrNotFound is returned by any backend when the requested record does not
// exist. The GORM sentinel is reused so errors.Is holds for both the SQL
// and key-value backends.
var ErrNotFound = gorm.ErrRecordNotFound
