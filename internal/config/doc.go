// Package config manages the joymap user configuration file.
//
// The file holds preferences for joymap-edit (default store, timeouts,
// discovery) and remembers the stores this machine has loaded from, so a
// store can be named instead of addressed:
//
//	version: 1
//	preferences:
//	  default_store: living-room
//	  timeout: 10
//	  retries: 3
//	  auto_discover: true
//	  discover_timeout: 5
//	  strict: false
//	stores:
//	  living-room:
//	    url: http://raspberrypi.local:3000
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/joymap/config.yaml or $HOME/.config/joymap/config.yaml
//   - macOS: $HOME/.config/joymap/config.yaml
//   - Windows: %LOCALAPPDATA%\joymap\config.yaml
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
