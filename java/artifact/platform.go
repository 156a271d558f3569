package artifact

import (
	"bytes"
	_ "embed"
)

//go:embed platform.yaml
var platformYAML []byte

// LoadPlatform adds the embedded java.lang essentials to x.
func (x *Index) LoadPlatform() error {
	return x.LoadYAML(bytes.NewReader(platformYAML))
}

// PlatformIndex returns a fresh index holding only the platform classes.
func PlatformIndex() *Index {
	x := NewIndex()
	if err := x.LoadPlatform(); err != nil {
		panic(err)
	}
	return x
}
