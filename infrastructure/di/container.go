package di

import (
	"go.uber.org/zap"

	"ideatracker/application/commands/bus"
	"ideatracker/application/ports"
	querybus "ideatracker/application/queries/bus"
	"ideatracker/application/services"
	"ideatracker/application/session"
	"ideatracker/infrastructure/config"
	"ideatracker/interfaces/http/rest"
	"ideatracker/pkg/auth"
	"ideatracker/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      ports.PathStore
	Repository ports.IdeaRepository
	Cache      ports.Cache
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Ideas      *services.IdeaService
	Auth       auth.Provider
	Sessions   *session.Manager
	Router     *rest.Router
	Tracer     *observability.Tracer
	Metrics    observability.Recorder
}
