package contract

// file: internal/contract/embed.go

import "embed"

//go:embed schemadata
var embeddedBundle embed.FS

// embeddedFS roots the embedded bundle at schemadata/ so it presents the
// same layout (metadata.json, manifest.sha256, json-schema/) as an on-disk
// override directory.
func embeddedFS() (embed.FS, string) {
	return embeddedBundle, "schemadata"
}
