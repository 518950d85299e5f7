package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopower/adapters/postgres"
	"gopower/internal/config"
	"gopower/internal/container"
	"gopower/internal/errors"
	"gopower/models"
	"gopower/ports"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Usage: migrate [records_dir]
//
// Applies the schema to DATABASE_URL. When records_dir is given, every
// *.json file below it holding a calculation record (or a list of them,
// as written by `gopower-cli history --json`) is imported.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := container.Connect(ctx, appConfig.Database)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	defer db.Close()
	log.Printf("Schema is up to date")

	if len(os.Args) < 2 {
		return
	}

	recordsDir := os.Args[1]
	files, err := findRecordFiles(recordsDir)
	if err != nil {
		log.Fatalf("Failed to find record files: %v", err)
	}
	log.Printf("Found %d record files to import from %s", len(files), recordsDir)

	repo := postgres.NewCalculationRepository(db)
	stats := importFiles(ctx, repo, files)
	log.Printf("Import complete: %d imported, %d already present, %d skipped",
		stats.Imported, stats.Duplicates, stats.Skipped)
}

// importStats counts records by outcome. Skipped covers unreadable files
// and invalid or unsaved records.
type importStats struct {
	Imported   int
	Duplicates int
	Skipped    int
}

func importFiles(ctx context.Context, repo ports.CalculationRepository, files []string) importStats {
	var stats importStats
	for _, file := range files {
		records, err := loadRecordsFromFile(file)
		if err != nil {
			log.Printf("Failed to load records from %s: %v", file, err)
			stats.Skipped++
			continue
		}

		for i, record := range records {
			if record.ID == uuid.Nil {
				// deterministic so a re-run does not duplicate the record
				record.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", file, i)))
			}
			if err := record.Validate(); err != nil {
				log.Printf("Skipping invalid record %s from %s: %v", record.ID, filepath.Base(file), err)
				stats.Skipped++
				continue
			}

			_, err := repo.Get(ctx, record.ID)
			if err == nil {
				stats.Duplicates++
				continue
			}
			if !errors.IsNotFound(err) {
				log.Printf("Failed to look up record %s: %v", record.ID, err)
				stats.Skipped++
				continue
			}

			if err := repo.Save(ctx, record); err != nil {
				log.Printf("Failed to save record %s from %s: %v", record.ID, filepath.Base(file), err)
				stats.Skipped++
				continue
			}
			stats.Imported++
		}
	}
	return stats
}

func findRecordFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// loadRecordsFromFile accepts a single record or an array of records
func loadRecordsFromFile(filePath string) ([]*models.CalculationRecord, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []*models.CalculationRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var record models.CalculationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return []*models.CalculationRecord{&record}, nil
}
