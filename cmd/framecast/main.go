package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/framecast/framecast/pkg/frame"
	"github.com/framecast/framecast/pkg/photos"
	"github.com/framecast/framecast/util/log"
	"github.com/spf13/viper"
)

// framecast drives one registry of collection coordinators from a config
// file and writes the current image for each collection to disk whenever
// the selection advances.
func main() {
	viper.SetConfigName("framecast")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".framecast"))
	}
	viper.SetEnvPrefix("framecast")
	viper.AutomaticEnv()

	viper.SetDefault("endpoint", photos.DefaultEndpoint)
	viper.SetDefault("output_dir", "images")
	viper.SetDefault("width", frame.DefaultImageWidth)
	viper.SetDefault("height", frame.DefaultImageHeight)
	viper.SetDefault("selection_mode", frame.SelectionRandom.String())
	viper.SetDefault("interval", frame.DefaultInterval.String())
	viper.SetDefault("crop_mode", frame.CropModeContain.String())

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}

	token := viper.GetString("access_token")
	if token == "" {
		log.Fatal("access_token is required (OAuth token with photo library read scope)")
	}
	collectionIDs := viper.GetStringSlice("collections")
	if len(collectionIDs) == 0 {
		log.Fatal("at least one collection id is required (album id or FAVORITES)")
	}

	httpClient := &http.Client{
		Transport: &photos.AuthTransport{
			Token:     func() string { return token },
			UserAgent: "framecast",
		},
	}
	client := photos.NewClient(httpClient)
	client.SetEndpoint(viper.GetString("endpoint"))

	outputDir := viper.GetString("output_dir")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Creating output directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := frame.NewRegistry(client, httpClient)
	width := viper.GetInt("width")
	height := viper.GetInt("height")

	var coordinators []*frame.Coordinator
	for _, id := range collectionIDs {
		coordinator, err := registry.Get(ctx, id)
		if err != nil {
			log.Printf("Skipping collection %s: %v", id, err)
			continue
		}
		coordinator.SetSelectionMode(frame.ParseSelectionMode(viper.GetString("selection_mode")))
		coordinator.SetInterval(frame.ParseDisplayInterval(viper.GetString("interval")))
		coordinator.SetCropMode(frame.ParseCropMode(viper.GetString("crop_mode")))

		coordinator.Subscribe(func() {
			if item := coordinator.CurrentItem(); item != nil {
				log.Printf("%s: now showing %s", coordinator.CollectionID(), item.ID)
			}
		})
		coordinators = append(coordinators, coordinator)
		log.Printf("Serving %s (%s)", coordinator.DeviceInfo().Name, id)
	}
	if len(coordinators) == 0 {
		log.Fatal("no collections could be initialized")
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down.")
			return
		case <-ticker.C:
			for _, coordinator := range coordinators {
				if !coordinator.MaybeAdvance(ctx) {
					continue
				}
				data := coordinator.GetImage(ctx, width, height)
				if data == nil {
					continue
				}
				outPath := filepath.Join(outputDir, fmt.Sprintf("%s.jpg", coordinator.CollectionID()))
				if err := os.WriteFile(outPath, data, 0644); err != nil {
					log.Printf("Writing %s: %v", outPath, err)
				}
			}
		}
	}
}
