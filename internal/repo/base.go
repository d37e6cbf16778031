package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the connection holder every domain repository embeds.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to ctx. Repositories call this at the top of
// every query so cancellation propagates to the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
