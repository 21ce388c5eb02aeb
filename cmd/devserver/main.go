package main

import (
	"log"

	"github.com/projectpulse/gridcore/internal/config"
	"github.com/projectpulse/gridcore/internal/devserver"
	"github.com/projectpulse/gridcore/pkg/models"
)

func main() {
	cfg := config.Load()

	srv := devserver.New(cfg.JWTSecret)
	if err := srv.SeedUser("Demo User", "demo@example.com", "demoPassword1"); err != nil {
		log.Fatalf("Failed to seed demo user: %v", err)
	}
	srv.SeedTable("tbl_projects", []models.Record{
		{ID: "r1", Values: models.RowValues{"col_name": "Website refresh", "col_budget": float64(12000), "col_status": "active"}},
		{ID: "r2", Values: models.RowValues{"col_name": "Mobile app", "col_budget": float64(48000), "col_status": "planned"}},
	})
	log.Println("Seeded demo user demo@example.com and table tbl_projects")

	log.Printf("Dev API listening on :%s", cfg.Port)
	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
