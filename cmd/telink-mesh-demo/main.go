// telink-mesh-demo runs a Telink mesh client against an in-memory
// simulated device: it pairs, enables notifications, issues a handful of
// queries and prints the reports that come back.
//
// Usage:
//
//	telink-mesh-demo [options]
//
// Options:
//
//	-address  Device MAC address (default: "AA:BB:CC:DD:EE:FF")
//	-name     Mesh network name (default: "telink_mesh1")
//	-password Mesh network password (default: "123")
//	-config   YAML config file overriding the flags above
//
// Example:
//
//	telink-mesh-demo -name mymesh -password hunter2
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/backkem/telink/pkg/client"
	"github.com/backkem/telink/pkg/mesh"
	"github.com/backkem/telink/pkg/radio"
)

func main() {
	address := flag.String("address", "AA:BB:CC:DD:EE:FF", "Device MAC address")
	name := flag.String("name", "telink_mesh1", "Mesh network name")
	password := flag.String("password", "123", "Mesh network password")
	configPath := flag.String("config", "", "YAML config file overriding the flags")
	flag.Parse()

	config := client.Config{
		Address:  *address,
		Name:     *name,
		Password: *password,
	}
	if *configPath != "" {
		loaded, err := client.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		config = loaded
	}

	// Both ends of an in-memory radio pipe: the client talks to a
	// simulated device instead of real BLE hardware.
	pipe := radio.NewPipe()
	defer pipe.Close()

	device, err := client.NewSimulatedDevice(pipe, config.Address, config.Name, config.Password)
	if err != nil {
		log.Fatalf("Failed to create simulated device: %v", err)
	}

	config.Link = pipe.Link()
	config.Sink = mesh.SinkFuncs{
		Time: func(r mesh.TimeReport) {
			fmt.Printf("time report:    %04d-%02d-%02d %02d:%02d:%02d\n",
				r.Year, r.Month, r.Day, r.Hour, r.Minute, r.Second)
		},
		Address: func(r mesh.AddressReport) {
			fmt.Printf("address report: 0x%04X\n", uint16(r.Address))
		},
		Groups: func(r mesh.GroupReport) {
			fmt.Printf("group report:   %v\n", r.Groups)
		},
	}

	c, err := client.New(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer c.Disconnect()
	fmt.Printf("paired with %s\n", config.Address)

	// Answer the demo queries from the device side.
	go answerQueries(device)

	if err := c.QueryTime(); err != nil {
		log.Fatalf("Time query failed: %v", err)
	}
	if err := c.QueryMeshID(); err != nil {
		log.Fatalf("Mesh id query failed: %v", err)
	}
	if err := c.QueryGroups(); err != nil {
		log.Fatalf("Group query failed: %v", err)
	}

	// Reports arrive asynchronously; give them a moment.
	time.Sleep(500 * time.Millisecond)

	fmt.Printf("cached mesh id: 0x%04X\n", uint16(c.Session().MeshID()))
	fmt.Printf("cached groups:  %v\n", c.Session().Groups())
}

// answerQueries watches the simulated device for the demo's queries and
// pushes canned reports back.
func answerQueries(device *client.SimulatedDevice) {
	now := time.Now()
	if _, ok := device.WaitForCommand(mesh.CommandTimeQuery, time.Second); ok {
		device.SendReport(mesh.CommandTimeReport, []byte{
			byte(now.Year() & 0xFF), byte(now.Year() >> 8),
			byte(now.Month()), byte(now.Day()),
			byte(now.Hour()), byte(now.Minute()), byte(now.Second()),
			byte(now.Weekday()),
		})
	}
	if _, ok := device.WaitForCommand(mesh.CommandAddressEdit, time.Second); ok {
		device.SendReport(mesh.CommandAddressReport, []byte{0x42, 0x00})
	}
	if _, ok := device.WaitForCommand(mesh.CommandGroupIDQuery, time.Second); ok {
		device.SendReport(mesh.CommandGroupIDReport, []byte{0x01, 0x05})
	}
}
