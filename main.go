package main

import (
	"embed"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/raceway/pkg/log"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	app := NewApp()
	defer log.Sync()

	err := wails.Run(&options.App{
		Title:  "Raceway",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Errorf("wails: %v", err)
	}
}
