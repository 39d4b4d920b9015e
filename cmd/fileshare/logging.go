package main

import (
	"strings"

	"go.uber.org/zap"
)

func newLogger(env string) (*zap.Logger, error) {
	switch strings.ToLower(env) {
	case "dev", "development", "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
