//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"moviecatalog/internal/biz"
	"moviecatalog/internal/conf"
	"moviecatalog/internal/data"
	"moviecatalog/internal/server"
	"moviecatalog/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.TMDb, *conf.Auth, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}

// wireMaintenance init the use cases behind the offline subcommands.
func wireMaintenance(*conf.Data, *conf.TMDb, log.Logger) (*maintenance, func(), error) {
	panic(wire.Build(data.ProviderSet, biz.NewMovieUseCase, biz.NewRatingUseCase, newMaintenanceSet))
}
