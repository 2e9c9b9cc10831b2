package routes

import (
	"spark_server/controllers"
	"spark_server/services"

	"github.com/gorilla/mux"
)

// RegisterLocationRoutes sets up routes for location ingestion under /api/location
func RegisterLocationRoutes(r *mux.Router, queue *services.IngestQueue, locations services.LocationStore) {
	controller := controllers.NewLocationController(queue, locations)

	locationRouter := r.PathPrefix("/api/location").Subrouter()
	locationRouter.HandleFunc("", controller.HandleUpdateLocation).Methods("POST")
	locationRouter.HandleFunc("/latest", controller.HandleGetLatestLocation).Methods("GET")
}
