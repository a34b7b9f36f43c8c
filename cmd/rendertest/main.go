// Command rendertest rasterizes an annotation document to a PNG without
// launching the UI. Useful for checking documents and render output from the
// command line.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"github.com/rs/zerolog"

	"image-annotator/internal/scene"
)

func main() {
	docPath := flag.String("doc", "", "Path to annotation document (JSON)")
	outPath := flag.String("out", "out.png", "Output PNG path")
	scale := flag.Float64("scale", 1.0, "Rasterization scale factor")
	flag.Parse()

	if *docPath == "" {
		fmt.Println("Usage: rendertest -doc <path> [-out out.png] [-scale 1.0]")
		os.Exit(1)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	data, err := os.ReadFile(*docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read document: %v\n", err)
		os.Exit(1)
	}

	sc := scene.New(log)
	if err := sc.Restore(data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse document: %v\n", err)
		os.Exit(1)
	}

	arrows, markers := 0, 0
	for _, o := range sc.Objects() {
		switch o.Kind {
		case scene.KindArrow:
			arrows++
		case scene.KindMarker:
			markers++
		}
	}
	fmt.Printf("Loaded document: %d arrows, %d markers\n", arrows, markers)
	if bg := sc.Background(); bg != nil {
		b := bg.Image().Bounds()
		fmt.Printf("Background: %dx%d pixels (fit %.3f)\n", b.Dx(), b.Dy(), bg.Fit())
	}

	img, err := sc.Rasterize(*scale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rasterization failed: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode PNG: %v\n", err)
		os.Exit(1)
	}

	b := img.Bounds()
	fmt.Printf("Wrote %s (%dx%d)\n", *outPath, b.Dx(), b.Dy())
}
