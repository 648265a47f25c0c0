package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a production logger for APP_ENV=production and a development
// logger otherwise.
func New(env string) (*zap.Logger, error) {
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
