// Package logging centralizes zap logger construction so every binary in
// this module gets the same structured-logging configuration.
package logging

import "go.uber.org/zap"

// New builds a production logger, or a development one (human-readable,
// debug-level) when dev is true.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
