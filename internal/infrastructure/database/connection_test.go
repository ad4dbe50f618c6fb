package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"ERROR", gormlogger.Error},
		{" info ", gormlogger.Info},
		{"warn", gormlogger.Warn},
		{"", gormlogger.Warn},
		{"verbose", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}
