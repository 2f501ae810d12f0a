// Package config provides configuration parsing for Loom applications.
//
// The configuration lives in loom.json (or loom.yaml) next to the
// application. This package handles loading, saving, validating and
// overriding it.
//
// # Configuration File Structure
//
//	{
//	  "dev": true,
//	  "log": {"level": "debug", "format": "text"},
//	  "scheduler": {
//	    "maxEffectRunsPerFlush": 10000,
//	    "maxErrorsPerPass": 8
//	  },
//	  "metrics": {"enabled": true, "namespace": "loom"},
//	  "tracing": {"enabled": false, "tracerName": "loom"},
//	  "devtools": {"addr": "127.0.0.1:7070"}
//	}
//
// Overrides in "a.b=value" form (from the CLI --set flag) are applied with
// ApplyOverrides.
package config
