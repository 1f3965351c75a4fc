//go:build rp2040 || rp2350

// cmd/pico-burstfire/main.go
package main

import (
	"time"

	"burstfire-go/drivers/burstfire"
	"burstfire-go/transport"
)

// ---------- Configuration ----------

const (
	sdaPin  = 4 // GP4
	sclPin  = 5 // GP5
	clockHz = 100_000

	demoDuty  = 5
	heartbeat = 1 * time.Second
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	cfg := burstfire.BusConfig{Port: 0, SDA: sdaPin, SCL: sclPin, ClockHz: clockHz}
	s, err := burstfire.Initialize(transport.Platform(), &cfg)
	if err != nil {
		println("[burstfire] init failed:", err.Error())
		halt()
	}

	var found [burstfire.MaxDevices]uint8
	n, err := s.ScanInto(found[:])
	if err != nil {
		println("[burstfire] scan failed:", err.Error())
		halt()
	}
	println("[burstfire] found", n, "controller(s)")

	for _, addr := range found[:n] {
		info, err := s.DeviceInfo(addr)
		if err != nil {
			println("[burstfire]", burstfire.FormatAddress(addr), "info error:", err.Error())
			continue
		}
		println("[burstfire]", burstfire.FormatAddress(addr), "firmware", info.Firmware.String())
	}

	if n > 0 {
		if err := s.SetDuty(found[0], demoDuty); err != nil {
			println("[burstfire] set duty failed:", err.Error())
		} else {
			println("[burstfire]", burstfire.FormatAddress(found[0]), "duty", demoDuty)
		}
	}

	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	for t := range tick.C {
		for _, addr := range found[:n] {
			st, err := s.Status(addr)
			if err != nil {
				println(t.Format("15:04:05"), burstfire.FormatAddress(addr), "error:", err.Error())
				continue
			}
			println(t.Format("15:04:05"), burstfire.FormatAddress(addr), st.String())
		}
		if n == 0 {
			println(t.Format("15:04:05"), "Heartbeat")
		}
	}
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
