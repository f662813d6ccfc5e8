package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/pixelcv-arcade/internal/game"
)

type palette struct {
	fill   string
	stroke string
}

var (
	playerPalette = palette{fill: "#f7f3ea", stroke: "#1e1f24"}
	aiPalette     = palette{fill: "#26272e", stroke: "#e4e0d6"}
	redPalette    = palette{fill: "#d0393b", stroke: "#5c1012"}
	bluePalette   = palette{fill: "#2f6fd6", stroke: "#0f2550"}
)

// Shapes are drawn in a 100x100 view box. Each element gets the palette
// through %[1]s (fill) and %[2]s (stroke).
var shapes = map[byte][]string{
	'p': {
		`<circle cx="50" cy="32" r="13" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
		`<path d="M36 50 L64 50 L72 84 L28 84 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
	},
	'r': {
		`<path d="M28 20 L37 20 L37 28 L45 28 L45 20 L55 20 L55 28 L63 28 L63 20 L72 20 L72 40 L64 45 L64 72 L74 84 L26 84 L36 72 L36 45 L28 40 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
	},
	'n': {
		`<path d="M30 84 L70 84 L66 60 C70 40 64 22 44 16 L40 25 L24 44 L29 53 L44 46 L34 70 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
	},
	'b': {
		`<circle cx="50" cy="15" r="6" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
		`<ellipse cx="50" cy="43" rx="15" ry="21" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
		`<path d="M32 84 L68 84 L60 64 L40 64 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
	},
	'q': {
		`<path d="M20 28 L34 62 L39 24 L50 58 L61 24 L66 62 L80 28 L71 76 L29 76 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
		`<rect x="27" y="77" width="46" height="9" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
	},
	'k': {
		`<path d="M46 8 L54 8 L54 18 L63 18 L63 26 L54 26 L54 35 L46 35 L46 26 L37 26 L37 18 L46 18 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
		`<path d="M30 84 L70 84 L66 52 C73 39 60 33 50 42 C40 33 27 39 34 52 Z" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>`,
	},
}

var (
	crossShape = []string{
		`<path d="M22 22 L78 78 M78 22 L22 78" fill="none" stroke="%[2]s" stroke-width="13" stroke-linecap="round"/>`,
	}
	ringShape = []string{
		`<circle cx="50" cy="50" r="29" fill="none" stroke="%[2]s" stroke-width="12"/>`,
	}
	discShape = []string{
		`<circle cx="50" cy="50" r="34" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
		`<circle cx="50" cy="50" r="20" fill="none" stroke="%[2]s" stroke-width="3"/>`,
	}
)

// glyphSVG returns the SVG document for a cell of the given game, or false
// for cells without a shape. Chess letters and checkers colors overlap, so
// the game decides how a cell is read.
func glyphSVG(gameID string, c game.Cell) (string, bool) {
	var (
		elems []string
		pal   palette
	)
	switch gameID {
	case "chess":
		key := byte(c)
		pal = aiPalette
		if key >= 'A' && key <= 'Z' {
			key = key - 'A' + 'a'
			pal = playerPalette
		}
		elems = shapes[key]
	case "tictactoe":
		switch c {
		case 'X':
			elems, pal = crossShape, palette{stroke: "#c8323a"}
		case 'O':
			elems, pal = ringShape, palette{stroke: "#2c5fbf"}
		}
	default:
		switch c {
		case 'R':
			elems, pal = discShape, redPalette
		case 'B':
			elems, pal = discShape, bluePalette
		}
	}
	if len(elems) == 0 {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">`)
	for _, e := range elems {
		sb.WriteString(fmt.Sprintf(e, pal.fill, pal.stroke))
	}
	sb.WriteString(`</svg>`)
	return sb.String(), true
}

type glyphKey struct {
	game string
	cell game.Cell
	size int
}

var (
	glyphCache   = map[glyphKey]image.Image{}
	glyphCacheMu sync.RWMutex
)

func renderGlyph(gameID string, c game.Cell, size int) (image.Image, error) {
	key := glyphKey{game: gameID, cell: c, size: size}

	glyphCacheMu.RLock()
	if img, ok := glyphCache[key]; ok {
		glyphCacheMu.RUnlock()
		return img, nil
	}
	glyphCacheMu.RUnlock()

	doc, ok := glyphSVG(gameID, c)
	if !ok {
		return nil, fmt.Errorf("no glyph for cell %q", c.String())
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse glyph svg %q: %w", c.String(), err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	glyphCacheMu.Lock()
	glyphCache[key] = img
	glyphCacheMu.Unlock()
	return img, nil
}
