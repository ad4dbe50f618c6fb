package repository

import (
	"testing"

	"github.com/zerovacancy/payments/internal/testutil"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewTestDB(t)
}

func ptr[T any](v T) *T {
	return testutil.Ptr(v)
}
