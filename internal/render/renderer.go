// Package render draws a board position as a PNG.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
)

const (
	DefaultSquarePx = 64
	minSquarePx     = 16
	maxSquarePx     = 256
)

type MoveHighlight struct {
	From rules.Square
	To   rules.Square
}

type Options struct {
	SquarePx int
	// Flip draws the board from Black's side.
	Flip     bool
	LastMove *MoveHighlight
	Check    *rules.Square
	NoCoords bool
}

// OptionsFor derives highlights from g as seen by perspective.
func OptionsFor(g *game.Game, perspective rules.Color, squarePx int) Options {
	opts := Options{SquarePx: squarePx, Flip: perspective == rules.Black}
	if last := g.LastMoveUCI(); last != "" {
		if from, to, err := rules.ParseUCI(last); err == nil {
			opts.LastMove = &MoveHighlight{From: from, To: to}
		}
	}
	if turn := g.Turn(); g.InCheck(turn) {
		board := g.BoardState()
		if sq, ok := board.FindKing(turn); ok {
			opts.Check = &sq
		}
	}
	return opts
}

// Geometry reports the image size and board origin for opts.
func Geometry(opts Options) (size int, origin image.Point, squarePx int) {
	squarePx = opts.SquarePx
	if squarePx <= 0 {
		squarePx = DefaultSquarePx
	}
	squarePx = max(minSquarePx, min(squarePx, maxSquarePx))
	margin := 0
	if !opts.NoCoords {
		margin = squarePx / 2
	}
	return squarePx*8 + margin*2, image.Point{X: margin, Y: margin}, squarePx
}

func RenderPNG(ctx context.Context, board rules.Board, opts Options) ([]byte, error) {
	size, origin, squareSize := Geometry(opts)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, imagedraw.Src)

	v := view{squareSize: squareSize, origin: origin, flip: opts.Flip}
	drawSquares(img, v)
	drawHighlight(img, board, opts.LastMove, v)
	if opts.Check != nil {
		drawSquareOverlay(img, *opts.Check, v, checkColor)
	}
	if err := drawPieces(img, board, v); err != nil {
		return nil, err
	}
	if !opts.NoCoords {
		drawCoordinates(img, v)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

var (
	lightSquare             = color.RGBA{233, 207, 163, 255}
	darkSquare              = color.RGBA{187, 136, 96, 255}
	frameColor              = color.RGBA{40, 44, 60, 255}
	whiteMoveHighlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveHighlightArrow = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	checkColor              = color.NRGBA{R: 230, G: 40, B: 40, A: 150}
	coordinateTextColor     = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// view maps board squares to pixels.
type view struct {
	squareSize int
	origin     image.Point
	flip       bool
}

func (v view) rect(sq rules.Square) image.Rectangle {
	row, col := sq.Row, sq.Col
	if v.flip {
		row, col = 7-row, 7-col
	}
	x := v.origin.X + col*v.squareSize
	y := v.origin.Y + row*v.squareSize
	return image.Rect(x, y, x+v.squareSize, y+v.squareSize)
}

func (v view) center(sq rules.Square) image.Point {
	r := v.rect(sq)
	return image.Pt(r.Min.X+v.squareSize/2, r.Min.Y+v.squareSize/2)
}

func squareColor(sq rules.Square) color.Color {
	if (sq.Row+sq.Col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

func drawSquares(dst *image.RGBA, v view) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := rules.Square{Row: row, Col: col}
			imagedraw.Draw(dst, v.rect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst *image.RGBA, board rules.Board, v view) error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := rules.Square{Row: row, Col: col}
			pc := board.At(sq)
			if pc.Empty() {
				continue
			}
			img, err := renderPieceImage(pc, v.squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, v.rect(sq), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

// White moves fill both squares; Black moves get an arrow.
func drawHighlight(img *image.RGBA, board rules.Board, h *MoveHighlight, v view) {
	if h == nil || !h.From.Valid() || !h.To.Valid() {
		return
	}
	mover := board.At(h.To)
	if mover.Empty() {
		mover = board.At(h.From)
	}
	if !mover.Empty() && mover.Color == rules.Black {
		drawArrow(img, h.From, h.To, v, blackMoveHighlightArrow)
		return
	}
	drawSquareOverlay(img, h.From, v, whiteMoveHighlightFill)
	drawSquareOverlay(img, h.To, v, whiteMoveHighlightFill)
}

func drawSquareOverlay(img *image.RGBA, sq rules.Square, v view, clr color.Color) {
	if !sq.Valid() {
		return
	}
	imagedraw.Draw(img, v.rect(sq), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to rules.Square, v view, clr color.Color) {
	if from == to {
		return
	}
	start, end := v.center(from), v.center(to)
	squareSize := float64(v.squareSize)

	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - squareSize*0.45
	if baseLength < squareSize*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := squareSize * 0.18
	headWidth := squareSize * 0.32

	baseX := float64(start.X) + dirX*baseLength
	baseY := float64(start.Y) + dirY*baseLength

	fillQuad(img,
		pointF{X: float64(start.X) - perpX*halfWidth, Y: float64(start.Y) - perpY*halfWidth},
		pointF{X: float64(start.X) + perpX*halfWidth, Y: float64(start.Y) + perpY*halfWidth},
		pointF{X: baseX + perpX*halfWidth, Y: baseY + perpY*halfWidth},
		pointF{X: baseX - perpX*halfWidth, Y: baseY - perpY*halfWidth},
		clr,
	)
	fillTriangleF(img,
		pointF{X: float64(end.X), Y: float64(end.Y)},
		pointF{X: baseX - perpX*headWidth/2, Y: baseY - perpY*headWidth/2},
		pointF{X: baseX + perpX*headWidth/2, Y: baseY + perpY*headWidth/2},
		clr,
	)
}

func drawCoordinates(dst *image.RGBA, v view) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	margin := v.origin.X

	for i := 0; i < 8; i++ {
		// Rank labels on the left, file labels along the bottom.
		rankSq := rules.Square{Row: i, Col: 0}
		fileSq := rules.Square{Row: 7, Col: i}
		if v.flip {
			rankSq = rules.Square{Row: 7 - i, Col: 7}
			fileSq = rules.Square{Row: 0, Col: 7 - i}
		}
		rc := v.center(rankSq)
		drawCenteredText(drawer, string(rankSq.Rank()), margin/2, rc.Y+ascent/2)
		fc := v.center(fileSq)
		drawCenteredText(drawer, string(fileSq.File()), fc.X, v.origin.Y+8*v.squareSize+(margin+ascent)/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

type pointF struct {
	X float64
	Y float64
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangleF(img, p0, p1, p2, clr)
	fillTriangleF(img, p0, p2, p3, clr)
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	gamma := 1 - alpha - beta
	return alpha >= 0 && beta >= 0 && gamma >= 0
}

// blendPixel composites clr over the pixel at (x, y).
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 0xffff - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/0xffff) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/0xffff) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/0xffff) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/0xffff) >> 8),
	})
}
