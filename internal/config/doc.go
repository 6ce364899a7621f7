// Package config provides configuration parsing for the observe tools.
//
// The configuration is stored in observe.json or observe.yaml in the
// working directory. This package handles loading, saving, and validating
// configuration. A missing file means defaults.
//
// # Configuration File Structure
//
//	{
//	  "logLevel": "info",
//	  "logFormat": "text",
//	  "debug": false,
//	  "inspector": {
//	    "addr": "localhost:7070",
//	    "allowOrigins": ["http://localhost:3000"],
//	    "readonly": false,
//	    "eventBuffer": 256
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "observe"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "observe"
//	  }
//	}
//
// The OBSERVE_LOG_LEVEL environment variable overrides logLevel.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Inspector.Addr)
package config
