package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duomatch_server/config"
	"duomatch_server/controllers"
	"duomatch_server/logger"
	"duomatch_server/matching"
	"duomatch_server/routes"
	"duomatch_server/services"
	"duomatch_server/socket"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize DynamoDB client and service
	awsCfg, err := services.LoadAWSConfig(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatal("AWS config", "error", err)
	}
	dynamoService := &services.DynamoService{Client: services.NewDynamoDBClient(awsCfg, cfg.AWS.Endpoint)}
	log.Info("DynamoDB client initialized", "region", cfg.AWS.Region, "endpoint", cfg.AWS.Endpoint)

	// Initialize Services
	duoRepository := &services.DuoRepository{
		Dynamo:        dynamoService,
		ProfilesTable: cfg.Tables.Profiles,
		SurveysTable:  cfg.Tables.Surveys,
		Concurrency:   cfg.Matching.FetchConcurrency,
		Log:           log,
	}
	matchStore := &services.MatchStore{Dynamo: dynamoService, Table: cfg.Tables.Matches}
	userProfileService := &services.UserProfileService{Dynamo: dynamoService, Table: cfg.Tables.Profiles}

	engine := matching.NewEngine(duoRepository, matchStore, matchStore)
	engine.MinScore = cfg.Matching.MinScore
	engine.Observer = services.LogObserver{Log: log}

	socketServer := socket.NewSocketServer(log)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Error("Socket server stopped", "error", err)
		}
	}()
	defer socketServer.Close()

	matchService := &services.MatchService{
		Engine:   engine,
		Matches:  matchStore,
		Profiles: userProfileService,
		Notifier: &socket.Notifier{Server: socketServer, Log: log},
		Anchor:   cfg.Anchor(),
		Log:      log,
	}
	if cfg.Archive.Enabled {
		s3Client := services.NewS3Client(awsCfg, cfg.AWS.Endpoint)
		matchService.Archive = &services.ArchiveService{
			Client:    s3Client,
			Presigner: s3.NewPresignClient(s3Client),
			Bucket:    cfg.Archive.Bucket,
			Prefix:    cfg.Archive.Prefix,
			TTL:       cfg.Archive.PresignTTL,
		}
		log.Info("Match archive enabled", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	if cfg.Schedule.Enabled {
		schedule, err := services.NewScheduleService(cfg.Schedule.Spec, matchService, cfg.Schedule.Force, log)
		if err != nil {
			log.Fatal("Match schedule", "error", err)
		}
		schedule.Start()
		defer schedule.Stop()
	}

	// Initialize the router
	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterMatchRoutes(r, controllers.NewMatchController(matchService, cfg.Anchor(), log))
	r.PathPrefix("/socket.io/").Handler(socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "anchor", cfg.Anchor().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", "error", err)
	}
}
