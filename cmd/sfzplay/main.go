// Command sfzplay loads an SFZ instrument and plays a hardcoded note list
// through the portable audio backend, demonstrating end-to-end wiring of
// the sfzvoice engine: parse, build regions, open a driver, play.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sfzvoice/sfzvoice"
)

func main() {
	sfzPath := flag.String("sfz", "", "path to an .sfz instrument file")
	flag.Parse()

	if *sfzPath == "" {
		fmt.Println("usage: sfzplay -sfz path/to/instrument.sfz")
		return
	}

	cfg := sfzvoice.DefaultSamplerConfig()
	sampler, err := sfzvoice.NewSampler(*sfzPath, cfg)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *sfzPath, err)
	}
	fmt.Printf("loaded %d regions from %s\n", len(sampler.Regions()), *sfzPath)

	driver, err := sfzvoice.NewOtoDriver(sampler, cfg.SampleRate, cfg.BlockSize)
	if err != nil {
		log.Fatalf("failed to open audio driver: %v", err)
	}
	driver.Start()
	defer driver.Close()

	notes := []int{60, 64, 67, 72}
	for _, note := range notes {
		sampler.NoteOn(note, 100, 0)
		time.Sleep(500 * time.Millisecond)
		sampler.NoteOff(note, 0)
		time.Sleep(200 * time.Millisecond)
	}
}
