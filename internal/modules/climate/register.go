package climate

import (
	"database/sql"
	"net/http"

	"climate-server/internal/modules/climate/controller"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB) {
	climateStore := repository.NewStore(db)
	climateService := service.NewService(climateStore)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
}
