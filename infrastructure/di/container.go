package di

import (
	"focuslink/application/ports"
	"focuslink/application/services"
	"focuslink/infrastructure/config"
	"focuslink/interfaces/http/rest"
	"focuslink/pkg/auth"
	"focuslink/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Repositories *Repositories
	Publisher    ports.EventPublisher
	Matchers     ports.MatcherSource
	Metrics      ports.MetricsRecorder
	Collector    *observability.Collector
	Tracer       *observability.TracerProvider
	Services     rest.Services
	Refresher    *services.MatchRefresher
	Notifier     *services.Notifier
	Validator    *auth.JWTValidator
	Router       *rest.Router
}
