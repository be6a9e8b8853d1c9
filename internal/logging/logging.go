package logging

import "go.uber.org/zap"

// NewLogger builds a sugared zap logger for the given environment: JSON
// output at info level in production, human-readable console output with
// debug level everywhere else.
func NewLogger(environment string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
