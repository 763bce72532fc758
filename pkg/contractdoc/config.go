package contractdoc

import (
	"fmt"
	"os"
)

type Config struct {
	// Directory where the output files are stored after rendering
	OutputDir string
	// Directory where the temporary files are stored during rendering
	TmpDir string
}

func NewDefaultConfig() *Config {
	cfg := Config{
		OutputDir: fmt.Sprintf("%s/inkwell/render/output", os.TempDir()),
		TmpDir:    fmt.Sprintf("%s/inkwell/render/tmp", os.TempDir()),
	}

	// 0755 mean owner can read, write and execute
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
	}
	if err := os.MkdirAll(cfg.TmpDir, 0755); err != nil {
		fmt.Printf("Error creating tmp directory: %v\n", err)
	}

	return &cfg
}
