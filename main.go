package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"spark_server/config"
	"spark_server/routes"
	"spark_server/services"
	"spark_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg := config.Load()

	// Initialize DynamoDB client and stores
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	locationStore := &services.DynamoLocationStore{Dynamo: dynamoService}
	cooldownStore := &services.DynamoCooldownStore{Dynamo: dynamoService}
	sparkStore := &services.DynamoSparkStore{Dynamo: dynamoService}
	profileStore := &services.DynamoProfileStore{Dynamo: dynamoService}

	// Photo presigning is optional; without a bucket the summaries carry raw keys.
	var signer services.PhotoURLSigner
	if cfg.S3Bucket != "" {
		s3Service, err := services.NewS3Service(cfg.S3Bucket)
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		signer = s3Service
	}

	// Socket.IO notification dispatcher
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize services
	profileService := &services.UserProfileService{Store: profileStore, Signer: signer}
	cooldownService := &services.CooldownService{Store: cooldownStore, Cooldown: cfg.Cooldown}
	sparkService := &services.SparkService{
		Store:     sparkStore,
		Profiles:  profileService,
		Cooldowns: cooldownService,
		Notifier:  &socket.SparkNotifier{Server: socketServer},
		Expiry:    cfg.Expiry,
	}
	matcher := &services.ProximityService{
		Locations:    locationStore,
		Profiles:     profileService,
		RadiusMeters: cfg.RadiusMeters,
		MaxSampleAge: cfg.MaxSampleAge,
	}
	pipeline := &services.MatchPipeline{
		Locations: locationStore,
		Matcher:   matcher,
		Cooldowns: cooldownService,
		Sparks:    sparkService,
	}

	// Ingest queue and workers
	queue := services.NewIngestQueue(cfg.IngestPartitions, cfg.IngestBuffer, pipeline.ProcessSample)
	queue.MaxRetries = cfg.IngestMaxRetries
	queue.JobTimeout = cfg.JobTimeout
	queue.Start(context.Background())
	defer queue.Close()

	// Expiry sweep
	go runExpirySweep(sparkService)

	// Initialize the router
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Spark")
	}).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterLocationRoutes(r, queue, locationStore)
	routes.RegisterSparkRoutes(r, sparkService)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-Id"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, corsHandler))
}

// runExpirySweep periodically transitions overdue pending sparks to expired.
func runExpirySweep(sparkService *services.SparkService) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := sparkService.ExpireSweep(ctx, time.Now()); err != nil {
			log.Printf("❌ Expiry sweep failed: %v", err)
		}
		cancel()
	}
}
