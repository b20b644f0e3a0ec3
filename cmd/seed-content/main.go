package main

import (
	"flag"
	"log"

	"github.com/sarathi/sarathi/internal/common/database"
	contentmodels "github.com/sarathi/sarathi/internal/content/models"
	contentservices "github.com/sarathi/sarathi/internal/content/services"
	progressmodels "github.com/sarathi/sarathi/internal/progress/models"
	statsmodels "github.com/sarathi/sarathi/internal/stats/models"
	statsrepo "github.com/sarathi/sarathi/internal/stats/repository"
	"github.com/sarathi/sarathi/pkg/logger"
)

type seedConfig struct {
	DBType      string // "sqlite" or "postgres"
	DSN         string
	CatalogPath string
	DemoUsers   bool
}

var cfg seedConfig

func init() {
	flag.StringVar(&cfg.DBType, "db-type", "sqlite", "Database type: sqlite or postgres")
	flag.StringVar(&cfg.DSN, "dsn", "./data/sarathi.db?mode=rwc&cache=shared&timeout=5000", "Database DSN")
	flag.StringVar(&cfg.CatalogPath, "catalog", "./data/catalog.json", "Mission catalog JSON path")
	flag.BoolVar(&cfg.DemoUsers, "demo-users", false, "Also create demo student and teacher accounts")
}

func main() {
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := database.InitWithType(cfg.DBType, cfg.DSN); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.GetDB().AutoMigrate(
		&contentmodels.Mission{},
		&progressmodels.ProgressRecord{},
		&statsmodels.User{},
		&statsmodels.XPLog{},
		&statsmodels.StreakLedger{},
	); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	seeded, err := contentservices.SeedCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to seed mission catalog: %v", err)
	}
	log.Printf("Seeded %d missions from %s", seeded, cfg.CatalogPath)

	if cfg.DemoUsers {
		for _, u := range []struct{ username, name, role string }{
			{"demo-student", "Demo Student", "student"},
			{"demo-teacher", "Demo Teacher", "teacher"},
		} {
			if _, err := statsrepo.CreateUser(u.username, u.name, u.role); err != nil {
				log.Printf("Skipping %s: %v", u.username, err)
				continue
			}
			log.Printf("Created %s (%s)", u.username, u.role)
		}
	}
}
