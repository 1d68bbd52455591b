// Package client provides the high-level API for talking to a Telink BLE
// mesh device: it composes a radio.Link transport with the pkg/mesh
// protocol engine, runs the pairing exchange on connect, and routes
// inbound reports to a caller-provided sink.
//
//	pipe := radio.NewPipe() // or a real BLE link implementation
//	c, err := client.New(client.Config{
//	    Address:  "AA:BB:CC:DD:EE:FF",
//	    Name:     "Device1",
//	    Password: "pass1234",
//	    Link:     pipe.Link(),
//	    Sink: mesh.SinkFuncs{
//	        Time: func(r mesh.TimeReport) {
//	            fmt.Printf("device clock: %04d-%02d-%02d\n", r.Year, r.Month, r.Day)
//	        },
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	c.QueryTime() // the TimeReport arrives asynchronously via the sink
package client
