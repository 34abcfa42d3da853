package pond

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"duckwatch/internal/metrics"
	"duckwatch/internal/modules/pond/controller"
	"duckwatch/internal/modules/pond/repository"
	"duckwatch/internal/modules/pond/service"
)

// NewService wires the sqlite repository behind the circuit breaker and
// returns the status service shared by the HTTP and MQTT surfaces.
func NewService(db *sql.DB, breakerTimeout time.Duration, recorder *metrics.Recorder, logger *slog.Logger) *service.Service {
	pondRepository := repository.NewGuardedRepository(repository.NewRepository(db), breakerTimeout, logger)
	return service.NewService(pondRepository, recorder, logger)
}

func RegisterFeature(mux *http.ServeMux, pondService *service.Service) {
	pondController := controller.NewPondController(pondService)
	pondController.RegisterRoutes(mux)
}
