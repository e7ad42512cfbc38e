// Package storeserver implements joymap-store, the HTTP service that owns
// mapping.json on the machine running the remapper.
//
// # Endpoints
//
//	GET  /mapping    the mapping file, created as {} when missing
//	POST /mapping    merge the posted document into the file and reply with
//	                 a plain-text status
//	GET  /api/logs   {"logs": [...]} captured remapper output
//	GET  /ws         websocket stream of {"type":"mapping_changed",...}
//	/                static files from Config.StaticDir, when set
//
// # Saving
//
// A POSTed document is merged into the stored one with mapping.Merge and
// written back with two-space indentation. The write goes to a temporary
// file that is renamed over mapping.json, so the remapper never reads a
// half-written file. When Config.ReloadCmd is set the remapper is then sent
// SIGINT, killed if it outlives Config.ReloadTimeout, and started again.
//
// # Usage Example
//
//	srv, err := storeserver.New(&storeserver.Config{
//	    Port:        3000,
//	    MappingFile: "/opt/joymap/mapping.json",
//	    ReloadCmd:   []string{"raw_joystick", "fe980000.usb", "fe980000.usb"},
//	    EnableMDNS:  true,
//	    WatchFile:   true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package storeserver
