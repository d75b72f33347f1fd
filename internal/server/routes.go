package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/qianfeiqianlan/2048-clash/internal/config"
	"github.com/qianfeiqianlan/2048-clash/internal/db"
	"github.com/qianfeiqianlan/2048-clash/internal/players"
)

func Run() error {
	appCfg := config.Load()

	var store Store = players.NewStore()

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running in memory)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				database.Close()
				return fmt.Errorf("migrating database: %w", err)
			}
			defer database.Close()
			store = database
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, scores are kept in memory")
	}

	srv := New(store, appCfg)

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Score service listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, srv.Routes())
}
