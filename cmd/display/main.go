package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/inertial_node/internal/app"
	"github.com/relabs-tech/inertial_node/internal/config"
)

func main() {
	configPath := flag.String("config", "inertial_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting inertial-node OLED display (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
