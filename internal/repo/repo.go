package repo

import (
	"gorm.io/gorm"
)

// GormRepo is the auth core's slice of the warranty database: the user table
// (read-only here) and the refresh-token table it owns.
type GormRepo struct {
	DB *gorm.DB
}
