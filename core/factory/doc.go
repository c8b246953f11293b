// Package factory builds modules named in configuration. A module entry is a
// type name plus a free-form conf map; each package registers a constructor
// for its types at init and decodes conf into its own struct with Decode.
//
//	sinks:
//	  - type: jsonl
//	    conf:
//	      path: out/days.jsonl
//	      max_size_mb: 10
package factory
