package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
)

const testSquare = 40

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

// pixel samples a point inside the displayed cell (row, col), given as
// fractions of the square.
func pixel(img image.Image, row, col int, fx, fy float64) color.RGBA {
	margin := testSquare / 2
	x := margin + col*testSquare + int(fx*testSquare)
	y := margin + row*testSquare + int(fy*testSquare)
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func brightness(c color.RGBA) int { return int(c.R) + int(c.G) + int(c.B) }

func TestRenderSizeAndSquares(t *testing.T) {
	data, err := RenderPNG(context.Background(), rules.StartingBoard(), Options{SquarePx: testSquare})
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, data)
	if b := img.Bounds(); b.Dx() != 360 || b.Dy() != 360 {
		t.Fatalf("size = %v", b)
	}
	// e4 is light, d4 is dark, both empty.
	if got := pixel(img, 4, 4, 0.5, 0.5); got != lightSquare {
		t.Fatalf("e4 = %v", got)
	}
	if got := pixel(img, 4, 3, 0.5, 0.5); got != darkSquare {
		t.Fatalf("d4 = %v", got)
	}
}

func TestRenderPiecesAndFlip(t *testing.T) {
	ctx := context.Background()
	board := rules.StartingBoard()

	data, err := RenderPNG(ctx, board, Options{SquarePx: testSquare})
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, data)
	// Bottom row shows White's king on e1.
	if got := pixel(img, 7, 4, 0.5, 0.62); brightness(got) < 600 {
		t.Fatalf("white king body = %v", got)
	}
	if got := pixel(img, 0, 4, 0.5, 0.62); brightness(got) > 150 {
		t.Fatalf("black king body = %v", got)
	}

	data, err = RenderPNG(ctx, board, Options{SquarePx: testSquare, Flip: true})
	if err != nil {
		t.Fatal(err)
	}
	flipped := decode(t, data)
	// From Black's side the bottom row holds Black's pieces.
	if got := pixel(flipped, 7, 4, 0.5, 0.62); brightness(got) > 150 {
		t.Fatalf("flipped bottom piece = %v", got)
	}
}

func TestRenderHighlights(t *testing.T) {
	g := game.New()
	if _, err := g.MakeUCIMove("e2e4"); err != nil {
		t.Fatal(err)
	}
	data, err := RenderPNG(context.Background(), g.BoardState(), OptionsFor(g, rules.White, testSquare))
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, data)
	if got := pixel(img, 6, 4, 0.5, 0.5); got == lightSquare {
		t.Fatal("e2 should carry the last-move tint")
	}
	if got := pixel(img, 5, 4, 0.5, 0.5); got != darkSquare {
		t.Fatalf("e3 should be untouched: %v", got)
	}
}

func TestOptionsForCheck(t *testing.T) {
	g := game.New()
	for _, mv := range []string{"e2e4", "f7f6", "d2d4", "g7g5", "d1h5"} {
		if _, err := g.MakeUCIMove(mv); err != nil {
			t.Fatal(err)
		}
	}
	opts := OptionsFor(g, rules.Black, 0)
	if !opts.Flip || opts.Check == nil || opts.Check.String() != "e8" {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.LastMove == nil || opts.LastMove.To.String() != "h5" {
		t.Fatalf("last move = %+v", opts.LastMove)
	}
	data, err := RenderPNG(context.Background(), g.BoardState(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if size, _, _ := Geometry(opts); decode(t, data).Bounds().Dx() != size {
		t.Fatal("geometry mismatch")
	}
}

func TestGeometryClamps(t *testing.T) {
	if size, _, sq := Geometry(Options{SquarePx: 2}); sq != minSquarePx || size != minSquarePx*9 {
		t.Fatalf("small: size %d sq %d", size, sq)
	}
	if _, origin, sq := Geometry(Options{NoCoords: true}); sq != DefaultSquarePx || origin != (image.Point{}) {
		t.Fatalf("default: sq %d origin %v", sq, origin)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderPNG(ctx, rules.StartingBoard(), Options{}); err == nil {
		t.Fatal("cancelled render should fail")
	}
}

func TestPieceCache(t *testing.T) {
	pc := rules.Piece{Type: rules.Knight, Color: rules.White}
	a, err := renderPieceImage(pc, 32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := renderPieceImage(pc, 32)
	if a != b {
		t.Fatal("second render should hit the cache")
	}
	if _, err := pieceSVG(rules.NoPiece); err == nil {
		t.Fatal("empty piece has no glyph")
	}
}
