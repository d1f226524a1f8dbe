// Package config loads reactiveurl server configuration.
//
// Configuration lives in reactiveurl.json or reactiveurl.toml:
//
//	{
//	  "page": "/issues",
//	  "query": "filter%5Bstatus%5D=closed",
//	  "defaults": {"q": "", "status": "open", "page": 1},
//	  "filterKeys": ["q", "status"],
//	  "debounce": "300ms",
//	  "exceptPaginator": false,
//	  "server": {"address": ":8080"},
//	  "metrics": {"enabled": true, "namespace": "reactiveurl"},
//	  "tracing": {"tracerName": "reactiveurl"}
//	}
//
// Omitting filterKeys namespaces every key of defaults; an empty list
// namespaces none.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	interval := cfg.DebounceInterval()
package config
