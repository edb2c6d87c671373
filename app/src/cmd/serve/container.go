package main

import (
	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
)

type application struct {
	Config  infra.Config
	Logger  *infra.Logger
	Service domain.RunService
}

func newApplication(cfg infra.Config, logger *infra.Logger, service domain.RunService) *application {
	return &application{
		Config:  cfg,
		Logger:  logger,
		Service: service,
	}
}
