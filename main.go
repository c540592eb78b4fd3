package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/asaidimu/go-packs/core/pack"
	"github.com/asaidimu/go-packs/leveldb"
	"go.uber.org/zap"
)

const (
	packDirName   = "demo.pack"
	sourceDirName = "demo-source"
	outputDirName = "demo-output"

	heroJSON = `{
		"_key": "!actors!hero0000",
		"_id": "hero0000",
		"name": "Hero",
		"folder": "fld00001",
		"hp": 42,
		"items": [
			{
				"_id": "sword000",
				"name": "Sword",
				"effects": [
					{"_id": "sharp000", "name": "Sharpness"}
				]
			},
			{"_id": "shield00", "name": "Shield"}
		]
	}`

	folderJSON = `{
		"_key": "!folders!fld00001",
		"_id": "fld00001",
		"name": "Party"
	}`
)

func main() {
	// Start fresh: remove any artifacts from a previous run.
	for _, dir := range []string{packDirName, sourceDirName, outputDirName} {
		if err := os.RemoveAll(dir); err != nil {
			log.Fatalf("Failed to remove %s: %v", dir, err)
		}
	}

	// Lay out a small source set: one actor with embedded items, one folder.
	if err := os.MkdirAll(sourceDirName, 0o755); err != nil {
		log.Fatalf("Failed to create source directory: %v", err)
	}
	sources := map[string]string{
		"hero.json":  heroJSON,
		"party.json": folderJSON,
	}
	for name, content := range sources {
		if err := os.WriteFile(filepath.Join(sourceDirName, name), []byte(content), 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	fmt.Printf("Wrote %d source files to %s.\n", len(sources), sourceDirName)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Open the pack store for this run.
	store, err := leveldb.Open(packDirName, logger)
	if err != nil {
		log.Fatalf("Failed to open pack store: %v", err)
	}
	defer func() {
		if cErr := store.Close(); cErr != nil {
			log.Printf("Error closing pack store: %v", cErr)
		}
		fmt.Println("Pack store closed.")
	}()

	pipeline, err := pack.New(store, pack.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	pipeline.RegisterSubscription(pack.RegisterSubscriptionOptions{
		Event: pack.EntryPacked,
		Callback: func(ctx context.Context, event pack.PackEvent) error {
			fmt.Printf("Packed %s (from %s)\n", *event.Key, *event.Path)
			return nil
		},
	})

	ctx := context.Background()

	// Compile the source set into the store.
	if err := pipeline.Compile(ctx, sourceDirName, pack.CompileOptions{}); err != nil {
		log.Fatalf("Compile failed: %v", err)
	}
	fmt.Println("Compiled source set into pack store.")

	// Extract it back out, reconstructing the folder hierarchy.
	opts := pack.ExtractOptions{
		DocumentType: "Actor",
		Folders:      true,
		Clean:        true,
	}
	if err := pipeline.Extract(ctx, outputDirName, opts); err != nil {
		log.Fatalf("Extract failed: %v", err)
	}
	fmt.Printf("Extracted pack into %s.\n", outputDirName)

	err = filepath.Walk(outputDirName, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		fmt.Printf("  %s\n", path)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to list output: %v", err)
	}
}
