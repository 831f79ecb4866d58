package main

import (
	"flag"
	"log"
	"os"

	"github.com/simp-lee/ruelucas/internal/app"
	"github.com/simp-lee/ruelucas/internal/config"
)

const configEnv = "RUELUCAS_CONFIG"

func main() {
	defaultPath := "configs/config.yaml"
	if p := os.Getenv(configEnv); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "path to the dashboard configuration file (env "+configEnv+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}

	dashboard, err := app.New(cfg)
	if err != nil {
		log.Fatalf("build dashboard: %v", err)
	}

	if err := dashboard.Run(); err != nil {
		log.Fatalf("dashboard stopped: %v", err)
	}
}
