// Package config loads runtime configuration for the fibers tool.
//
// Configuration lives in fibers.json, or fibers.yaml / fibers.yml, in the
// working directory. Every field is optional; missing fields take the
// defaults returned by New.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "minRemaining": "1ms",
//	    "frameInterval": "16ms",
//	    "frameBudget": "10ms"
//	  },
//	  "debug": { "hookOrder": true },
//	  "log": { "level": "debug", "format": "json" },
//	  "metrics": { "enabled": true, "namespace": "fibers" },
//	  "server": { "addr": ":7070" },
//	  "snapshot": {
//	    "dir": "snapshots",
//	    "bucket": "my-bucket",
//	    "prefix": "fibers/",
//	    "region": "us-east-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Frame budget:", cfg.Scheduler.FrameBudget)
package config
