//go:build wireinject
// +build wireinject

package mixtrack

import (
	wire "github.com/google/wire"
)

func New(conf *Config) (*Client, error) {

	wire.Build(
		NewLogger,
		NewMetrics,
		NewPersistentStore,
		NewSender,
		NewClient,
	)

	return nil, nil
}
