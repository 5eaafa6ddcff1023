package receipt

import (
	"embed"
	"fmt"
	"os"
)

//go:embed fonts/*.ttf
var fontFS embed.FS

const defaultFontFile = "fonts/DejaVuSansCondensed.ttf"

// DefaultFont returns the UTF-8 face compiled into the binary.
func DefaultFont() []byte {
	b, err := fontFS.ReadFile(defaultFontFile)
	if err != nil {
		panic(fmt.Sprintf("receipt: embedded font missing: %v", err))
	}
	return b
}

// LoadFont reads the TTF at path. An empty path selects the compiled-in face.
func LoadFont(path string) ([]byte, error) {
	if path == "" {
		return DefaultFont(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load receipt font: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("load receipt font %s: empty file", path)
	}
	return b, nil
}
