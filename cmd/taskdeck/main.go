package main

import (
	"fmt"
	"os"

	"taskdeck/internal/config"
	"taskdeck/internal/settings"
	"taskdeck/internal/storage"
	"taskdeck/internal/ui"
)

func main() {
	cfg, err := config.LoadOrCreate(config.DefaultConfigFileName)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	sstore := settings.NewStore(cfg.SettingsPath)

	if err := ui.Run(store, cfg, sstore); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
