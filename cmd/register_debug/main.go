// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/relabs-tech/inertial_node/internal/app"
	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

func main() {
	configPath := flag.String("config", "inertial_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting ICM-42670 register debug tool (standalone)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	log.Println("Initializing IMU manager...")
	imuManager := sensors.GetIMUManager()
	if err := imuManager.Init(cfg); err != nil {
		log.Fatalf("IMU initialization failed: %v", err)
	}
	defer imuManager.Close()
	log.Printf("IMU available on %s", imuManager.Name())
	if cfg.RegisterDebugAllowWrites {
		log.Println("Warning: register writes enabled")
	}

	http.HandleFunc("/ws", app.HandleRegisterDebugWS)
	http.HandleFunc("/ws/calibration", app.HandleCalibrationWS)

	// API endpoint for live IMU data
	http.HandleFunc("/api/imu", app.HandleIMUData)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})

	addr := fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	log.Printf("Register debug tool listening on %s", addr)
	log.Printf("Open http://localhost:%d in your browser", cfg.RegisterDebugPort)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
