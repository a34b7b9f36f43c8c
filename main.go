// Package main provides the entry point for the Image Annotator application.
package main

import (
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"

	"image-annotator/internal/app"
	"image-annotator/internal/version"
	"image-annotator/ui/mainwindow"
	"image-annotator/ui/prefs"
)

const appID = "io.annotator.image"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	log.Info().Str("version", version.Version).Msg("starting image annotator")

	state, err := app.NewState(log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize application state")
	}
	appPrefs := prefs.Load()

	fyneApp := fyneapp.NewWithID(appID)
	win := mainwindow.New(fyneApp, state, appPrefs)

	// An optional document path on the command line is opened at startup.
	if len(os.Args) > 1 {
		path := os.Args[1]
		if err := state.LoadDocument(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to load document")
		}
	}

	win.ShowAndRun()
}
