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

	"github.com/park285/cheese-chess/internal/rules"
)

// Piece outlines on a 100x100 canvas. Every element is self-closing so the
// paint attributes can be spliced in per color.
var pieceShapes = map[rules.PieceType]string{
	rules.Pawn: `<circle cx="50" cy="30" r="13"/>` +
		`<path d="M35 85 L42 48 L58 48 L65 85 Z"/>` +
		`<rect x="25" y="82" width="50" height="10"/>`,
	rules.Knight: `<path d="M30 90 L70 90 L70 80 L62 80 C66 60 70 40 56 22 L50 12 L45 22 C35 26 24 40 22 50 L30 56 L42 48 C42 60 34 70 38 80 L30 80 Z"/>`,
	rules.Bishop: `<circle cx="50" cy="14" r="6"/>` +
		`<path d="M50 22 C32 36 32 58 40 68 L60 68 C68 58 68 36 50 22 Z"/>` +
		`<rect x="36" y="68" width="28" height="8"/>` +
		`<rect x="25" y="82" width="50" height="10"/>`,
	rules.Rook: `<path d="M25 20 h10 v8 h8 v-8 h14 v8 h8 v-8 h10 v22 h-8 v38 h8 v12 h-50 v-12 h8 v-38 h-8 Z"/>`,
	rules.Queen: `<path d="M22 30 L34 70 L66 70 L78 30 L62 55 L50 22 L38 55 Z"/>` +
		`<circle cx="22" cy="26" r="5"/><circle cx="50" cy="18" r="5"/><circle cx="78" cy="26" r="5"/>` +
		`<rect x="30" y="70" width="40" height="10"/>` +
		`<rect x="25" y="82" width="50" height="10"/>`,
	rules.King: `<path d="M46 6 h8 v8 h8 v8 h-8 v10 h-8 v-10 h-8 v-8 h8 Z"/>` +
		`<path d="M50 32 C28 30 20 52 34 70 L66 70 C80 52 72 30 50 32 Z"/>` +
		`<rect x="30" y="70" width="40" height="10"/>` +
		`<rect x="25" y="82" width="50" height="10"/>`,
}

var pieceFill = [2]string{"#f8f8f8", "#222222"}
var pieceStroke = [2]string{"#222222", "#f0f0f0"}

type pieceCacheKey struct {
	piece rules.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(p rules.Piece) (string, error) {
	shape, ok := pieceShapes[p.Type]
	if !ok {
		return "", fmt.Errorf("no glyph for %s", p)
	}
	paint := fmt.Sprintf(` fill="%s" stroke="%s" stroke-width="3"/>`, pieceFill[p.Color], pieceStroke[p.Color])
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">` +
		strings.ReplaceAll(shape, "/>", paint) + `</svg>`, nil
}

func renderPieceImage(p rules.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
