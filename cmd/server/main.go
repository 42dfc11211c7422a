package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"techstore-backend/internal/config"
	"techstore-backend/internal/es"
	"techstore-backend/internal/handlers"
	"techstore-backend/internal/logging"
	"techstore-backend/internal/media"
	"techstore-backend/internal/mykafka"
	authsvc "techstore-backend/internal/service/auth"
	"techstore-backend/internal/service/catalog"
	ordersvc "techstore-backend/internal/service/order"
	httpserver "techstore-backend/internal/transport/http"
	loggingmw "techstore-backend/pkg/middleware/logging"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	mediaStore, err := media.NewLocalStore(configuration.UPLOAD_DIR)
	if err != nil {
		log.Fatalf("media store init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	catalogSvc := &catalog.Service{DB: db, ES: esClient, Index: configuration.ES_INDEX, Producer: prod}
	orderSvc := &ordersvc.Service{
		DB:                db,
		Producer:          prod,
		DecrementStock:    configuration.ORDER_DECREMENT_STOCK,
		EnforceStatusFlow: configuration.ORDER_ENFORCE_STATUS_FLOW,
	}
	authSvc := &authsvc.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		JWTSecret:      jwtSecret,
		UploadDir:      configuration.UPLOAD_DIR,
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc},
		ProductHandler: &handlers.ProductHandler{Svc: catalogSvc, Media: mediaStore},
		OrderHandler:   &handlers.OrderHandler{Svc: orderSvc},
		SearchHandler:  &handlers.SearchHandler{Svc: catalogSvc},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
