// Package web holds the embedded single-page interface.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
