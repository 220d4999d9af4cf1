package database

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storecast/internal/models"
)

// SeedDemo populates a fresh database with one working stream so a
// local player has something to pull on first boot.
func SeedDemo(db *gorm.DB) {
	var count int64
	db.Model(&models.Stream{}).Count(&count)
	if count > 0 {
		return
	}

	log.Println("🌱 Seeding demo stream...")

	media := []models.MediaItem{
		{TenantID: 1, Title: "Storefront Groove", Artist: "House Band", Kind: models.KindMusic, StorageKey: "music/storefront-groove.mp3", Hash: "d41d8cd98f00b204e9800998ecf8427e", DurationSeconds: 212, SizeBytes: 3391488, Readiness: models.MediaReady},
		{TenantID: 1, Title: "Checkout Lane", Artist: "House Band", Kind: models.KindMusic, StorageKey: "music/checkout-lane.mp3", Hash: "9e107d9d372bb6826bd81d3542a419d6", DurationSeconds: 187, SizeBytes: 2991104, Readiness: models.MediaReady},
		{TenantID: 1, Title: "Opening Hours Jingle", Kind: models.KindJingle, StorageKey: "jingles/opening-hours.mp3", Hash: "e4d909c290d0fb1ca068ffaddf22cbd0", DurationSeconds: 12, SizeBytes: 192512, Readiness: models.MediaReady},
		{TenantID: 1, Title: "Weekly Promo", Kind: models.KindAd, AdState: models.AdApproved, StorageKey: "ads/weekly-promo.mp3", Hash: "a3f5902db2bd13218ab6a7bf17a5fb73", DurationSeconds: 30, SizeBytes: 481280, Readiness: models.MediaReady},
	}
	for i := range media {
		db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoNothing: true,
		}).Create(&media[i])
	}

	playlist := models.Playlist{TenantID: 1, Name: "Store Rotation"}
	db.Create(&playlist)
	for i, m := range media {
		db.Create(&models.PlaylistItem{PlaylistID: playlist.ID, MediaItemID: m.ID, Position: i})
	}

	stream := models.Stream{
		TenantID:            1,
		Name:                "Demo Store",
		ContractedAccesses:  5,
		CrossfadeSeconds:    2,
		VolumeNormalization: true,
		PrimaryPlaylistID:   &playlist.ID,
	}
	db.Create(&stream)

	db.Create(&models.Subscription{
		StreamID:           stream.ID,
		Status:             models.SubTrialing,
		ContractedAccesses: 5,
	})

	morning := models.Schedule{
		StreamID:     stream.ID,
		Name:         "Morning Rotation",
		ScheduleType: models.ScheduleFixedTime,
		Priority:     10,
		DaysOfWeek:   models.Weekdays,
		Active:       true,
		StartTime:    "08:00",
		EndTime:      "12:00",
		PlaylistID:   &playlist.ID,
		PlaybackMode: models.PlayShuffle,
	}
	promoID := media[3].ID
	promo := models.Schedule{
		StreamID:        stream.ID,
		Name:            "Hourly Promo",
		ScheduleType:    models.ScheduleInterval,
		Priority:        50,
		DaysOfWeek:      models.DaysAll,
		Active:          true,
		IntervalMinutes: 60,
		MediaItemID:     &promoID,
	}
	db.Create(&morning)
	db.Create(&promo)

	log.Printf("✅ Seeded stream %d with %d media items", stream.ID, len(media))
}
