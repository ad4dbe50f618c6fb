package errors

import (
	"go.uber.org/zap"
)

// LogError logs err with its code. Server side faults are logged at error
// level, client side failures at warn.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	allFields := make([]zap.Field, 0, len(fields)+2)
	allFields = append(allFields, zap.Error(err))

	code := CodeOf(err)
	allFields = append(allFields, zap.String("error_code", code))
	allFields = append(allFields, fields...)

	if ToHTTPStatus(code) >= 500 {
		logger.Error(msg, allFields...)
		return
	}
	logger.Warn(msg, allFields...)
}
