// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"log"
	"time"

	"github.com/gotmc/wandmini/cp2130"
	"github.com/gotmc/wandmini/wandmini"
)

const recordingTime = 10 * time.Second

func main() {
	ctx, err := cp2130.Init()
	if err != nil {
		log.Fatal("Couldn't create USB context. Ending now.")
	}
	defer ctx.Exit()

	// Find the first CP2130 bridge on the bus.
	dev, err := cp2130.OpenFirstDevice(ctx)
	if err != nil {
		log.Fatalf("Couldn't find a CP2130 bridge: %s", err)
	}

	// Print some info about the device
	log.Printf("Vendor ID = 0x%x / Product ID = 0x%x\n",
		dev.DeviceDescriptor.VendorID, dev.DeviceDescriptor.ProductID)

	if err := dev.Configure(); err != nil {
		dev.Close()
		log.Fatalf("Couldn't configure the bridge: %s", err)
	}

	/**************************
	* Stream sEMG samples     *
	**************************/

	packets := 0
	listener := &wandmini.Listener{
		DataPacketReady: func(packet []byte) {
			packets++
			if packets%1000 == 0 {
				log.Printf("%d packets so far", packets)
			}
		},
		ErrorOccurred: func(msg string) {
			log.Printf("acquisition error: %s", msg)
		},
	}
	session := wandmini.NewSession(wandmini.Config{
		Interface:     wandmini.StreamEMG(),
		WideInputMode: true,
	}, dev, listener)

	if err := session.Start(); err != nil {
		dev.Close()
		log.Fatalf("Error starting acquisition: %s", err)
	}
	time.Sleep(recordingTime)
	if err := session.Stop(); err != nil {
		log.Fatalf("Error stopping acquisition: %s", err)
	}
	log.Printf("Streamed %d samples with %d CRC errors",
		session.SampleCount(), session.ErrorCount())
}
