// Package logging constructs the *zap.Logger used across the control
// plane, split between a production JSON encoder and a human-readable
// development encoder.
package logging

import "go.uber.org/zap"

// New builds a zap logger appropriate for the given environment.
// "production" and "staging" get the JSON encoder; anything else
// (including the empty string) gets the human-readable development
// encoder.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" || environment == "staging" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
