package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration, including
// the stock operation catalog. It is written to disk on first run and used
// to backfill an operation catalog when the user config declares none.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte
