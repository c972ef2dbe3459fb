// cmd/server/main.go
package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/Mishragini/metaverse/internal/auth"
	"github.com/Mishragini/metaverse/internal/cache"
	"github.com/Mishragini/metaverse/internal/database"
	"github.com/Mishragini/metaverse/internal/handlers"
	"github.com/Mishragini/metaverse/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := cache.ConnectRedis(); err != nil {
		// The space-dimension cache is optional; joins fall back to Postgres.
		logger.Warnf("redis unavailable, continuing without cache: %v", err)
	}

	mux := http.NewServeMux()

	// auth endpoints
	mux.HandleFunc("POST /api/v1/signup", handlers.SignupHandler)
	mux.HandleFunc("POST /api/v1/signin", handlers.SigninHandler)

	// public catalogs
	mux.Handle("GET /api/v1/elements", handlers.ListElementsHandler(logger))
	mux.Handle("GET /api/v1/avatars", handlers.ListAvatarsHandler(logger))

	// user metadata
	mux.Handle("POST /api/v1/user/metadata", handlers.UpdateMetadataHandler(logger))
	mux.Handle("GET /api/v1/user/metadata/bulk", handlers.BulkMetadataHandler(logger))

	// space CRUD
	mux.Handle("POST /api/v1/space", handlers.CreateSpaceHandler(logger))
	mux.Handle("GET /api/v1/space/all", handlers.ListSpacesHandler(logger))
	mux.Handle("POST /api/v1/space/element", handlers.AddSpaceElementHandler(logger))
	mux.Handle("DELETE /api/v1/space/element", handlers.DeleteSpaceElementHandler(logger))
	mux.Handle("GET /api/v1/space/{spaceId}", handlers.GetSpaceHandler(logger))
	mux.Handle("DELETE /api/v1/space/{spaceId}", handlers.DeleteSpaceHandler(logger))

	// admin endpoints
	mux.Handle("POST /api/v1/admin/element", handlers.CreateElementHandler(logger))
	mux.Handle("PUT /api/v1/admin/element/{elementId}", handlers.UpdateElementHandler(logger))
	mux.Handle("POST /api/v1/admin/avatar", handlers.CreateAvatarHandler(logger))
	mux.Handle("POST /api/v1/admin/map", handlers.CreateMapHandler(logger))

	// realtime world websocket
	ws := handlers.NewWorldServer(logger)
	mux.Handle("/ws", handlers.WorldWSHandler(logger, ws))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Handler: middleware.LogMiddleware(logger)(mux),
		// No Read/WriteTimeout: /ws connections are long-lived and manage
		// their own deadlines per frame.
		ReadHeaderTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
