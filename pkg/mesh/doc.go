// Package mesh implements the client side of the Telink BLE mesh
// protocol: session key derivation from the pairing nonce exchange,
// encryption and decryption of the fixed 20-byte command frames, command
// packet construction, and parsing/dispatch of the device's report
// traffic.
//
// The package is a pure, synchronous transform pipeline. It performs no
// I/O: high-level operations return ciphertext frames for an external
// radio link (see pkg/radio) to transmit, and inbound notifications are
// fed to a Dispatcher which routes typed reports to a caller-provided
// Sink.
//
// A typical exchange:
//
//	identity, _ := mesh.NewIdentity("AA:BB:CC:DD:EE:FF", "Device1", "pass1234")
//	key, _ := mesh.DeriveSessionKey(identity.Name, identity.Password, nonceLocal, nonceRemote)
//	session, _ := mesh.NewSession(identity, key)
//	dispatcher := mesh.NewDispatcher(session, sink, nil)
//
//	frame, _ := session.QueryTime() // ciphertext, hand to the radio link
//	// ... later, on a notification:
//	report, _ := dispatcher.Inbound(notification)
package mesh
