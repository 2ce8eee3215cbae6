package main

import (
	"log/slog"

	"github.com/soocke/pixel-tracker-go/app"
	"github.com/soocke/pixel-tracker-go/cmd"
	"github.com/soocke/pixel-tracker-go/ui"
)

func main() {
	cmd.Execute(func(title string, width, height int, cfgPath string, dark bool, logger *slog.Logger) app.Frontend {
		return ui.NewWindow(title, width, height, cfgPath, dark, logger)
	})
}
