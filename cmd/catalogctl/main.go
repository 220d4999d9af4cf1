// catalogctl registers local audio files as ready media items,
// standing in for the upload pipeline during development and on-prem
// installs: it uploads the file, hashes it, reads its tags and writes
// the catalog row in one pass.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storecast/internal/config"
	database "storecast/internal/db"
	"storecast/internal/models"
	"storecast/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags)

	tenantID := flag.Uint("tenant", 1, "tenant id owning the media")
	kind := flag.String("kind", "music", "media kind: music, jingle, ad, attraction")
	prefix := flag.String("prefix", "music", "storage key prefix")
	approve := flag.Bool("approve", false, "mark ads approved for air")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: catalogctl [flags] <file.mp3> [more files...]")
	}

	cfg := config.Load()
	db := database.New(cfg)
	db.AutoMigrate()
	store := storage.New(cfg)

	for _, path := range flag.Args() {
		if err := register(db, store, path, *tenantID, models.MediaKind(*kind), *prefix, *approve); err != nil {
			log.Printf("❌ %s: %v", path, err)
			continue
		}
		log.Printf("✅ Registered %s", path)
	}
}

func register(db *database.Client, store storage.Provider, path string, tenantID uint, kind models.MediaKind, prefix string, approve bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return err
	}
	hash := hex.EncodeToString(hasher.Sum(nil))

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	artist := ""
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if meta, err := tag.ReadFrom(f); err == nil {
		if meta.Title() != "" {
			title = meta.Title()
		}
		artist = meta.Artist()
	}

	duration, err := mp3Duration(path)
	if err != nil {
		return fmt.Errorf("duration scan: %w", err)
	}

	key := prefix + "/" + filepath.Base(path)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := store.Put(key, f, "audio/mpeg"); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	adState := models.AdPending
	if kind == models.KindAd && approve {
		adState = models.AdApproved
	}

	item := models.MediaItem{
		TenantID:        tenantID,
		Title:           title,
		Artist:          artist,
		Kind:            kind,
		AdState:         adState,
		StorageKey:      key,
		Hash:            hash,
		DurationSeconds: duration,
		SizeBytes:       info.Size(),
		Readiness:       models.MediaReady,
	}

	// Re-registering the same key bumps the content version so offline
	// players invalidate their cached copy.
	return db.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"hash":             item.Hash,
			"duration_seconds": item.DurationSeconds,
			"size_bytes":       item.SizeBytes,
			"readiness":        string(models.MediaReady),
			"version":          gorm.Expr("version + 1"),
		}),
	}).Create(&item).Error
}

// mp3Duration sums frame durations; mp3 headers carry no total length.
func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}
	return total, nil
}
