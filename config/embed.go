package config

import _ "embed"

// Default holds the embedded baseline configuration. Values in conf.yaml
// and UGC_* environment variables override it.
//
//go:embed default.yaml
var Default []byte
