// Package schemas holds the JSON Schemas for the autofill message contract,
// the fill report and the configuration file.
package schemas

import "embed"

// Schema file names.
const (
	Message    = "message.schema.json"
	FillReport = "fill_report.schema.json"
	Config     = "config.schema.json"
)

// FS contains every schema file.
//
//go:embed *.schema.json
var FS embed.FS
