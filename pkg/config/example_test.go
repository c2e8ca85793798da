package config_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/framekit/pkg/config"
)

// ExampleDefault demonstrates the default configuration.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Layout: %s\n", cfg.Frame.Layout)
	fmt.Printf("Summary threshold: %d\n", cfg.Output.SummaryThreshold)
	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)

	// Output:
	// Layout: col
	// Summary threshold: 200000
	// Log level: warn
}

// ExampleConfig_Validate shows how to validate a configuration before using it.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Engine.Workers = 16
	cfg.Frame.Layout = "row"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.Frame.Layout = "diagonal"
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// config: invalid frame.layout: unknown layout "diagonal" (want row or col)
}

// ExampleLoadFile demonstrates loading a YAML file with environment variable
// substitution.
func ExampleLoadFile() {
	dir, err := os.MkdirTemp("", "framekit-config-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	os.Setenv("FRAMEKIT_EXAMPLE_WORKERS", "6")
	defer os.Unsetenv("FRAMEKIT_EXAMPLE_WORKERS")

	path := filepath.Join(dir, "framekit.yaml")
	yaml := "engine:\n  workers: ${FRAMEKIT_EXAMPLE_WORKERS}\nframe:\n  layout: row\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Workers: %d, layout: %s, threshold: %d\n",
		cfg.Engine.Workers, cfg.Frame.Layout, cfg.Output.SummaryThreshold)

	// Output:
	// Workers: 6, layout: row, threshold: 200000
}
