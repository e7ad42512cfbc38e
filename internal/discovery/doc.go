// Package discovery finds joymap stores on the local network with mDNS.
//
// joymap-store advertises a "_joymap._tcp" service. A Scanner browses for it
// and turns each answer into a Store with an address, port and TXT metadata.
//
// # Usage Example
//
//	stores, err := discovery.ScanForStores(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, st := range stores {
//	    fmt.Println(st.String(), st.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Stores must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
