// Package content is the post bundle compiled into the binary.
package content

import (
	"embed"
	"io/fs"
)

//go:embed posts images
var bundle embed.FS

// FS returns the bundle with posts/ and images/ at its root.
func FS() fs.FS {
	return bundle
}

// Images returns the bundled images.
func Images() fs.FS {
	sub, err := fs.Sub(bundle, "images")
	if err != nil {
		panic(err)
	}
	return sub
}
