package routes

import (
	"spark_server/controllers"
	"spark_server/services"

	"github.com/gorilla/mux"
)

// RegisterSparkRoutes sets up routes for spark queries and responses under /api/sparks
func RegisterSparkRoutes(r *mux.Router, sparkService *services.SparkService) {
	controller := controllers.NewSparkController(sparkService)

	sparkRouter := r.PathPrefix("/api/sparks").Subrouter()
	sparkRouter.HandleFunc("", controller.HandleListSparks).Methods("GET")
	sparkRouter.HandleFunc("", controller.HandleCreateSpark).Methods("POST")
	sparkRouter.HandleFunc("/{id}", controller.HandleGetSpark).Methods("GET")
	sparkRouter.HandleFunc("/{id}/respond", controller.HandleRespond).Methods("POST")
}
