package rbcserver

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/pkg/errors"
	"github.com/razzie/chessimage"
)

const (
	boardSize = 512
	gifDelay  = 100
)

var palette = getPalette()

// BoardsToGIF renders a sequence of FEN positions as an animated GIF.
func BoardsToGIF(w io.Writer, boards []string) error {
	if len(boards) == 0 {
		return errors.New("no boards to render")
	}
	anim := &gif.GIF{LoopCount: -1}
	for i, fen := range boards {
		r, err := chessimage.NewRendererFromFEN(fen)
		if err != nil {
			return errors.Wrapf(err, "board %d", i)
		}
		img, err := r.Render(chessimage.Options{
			PieceRatio: 1,
			BoardSize:  boardSize,
		})
		if err != nil {
			return errors.Wrapf(err, "board %d", i)
		}
		bounds := img.Bounds()
		palettedImage := image.NewPaletted(bounds, palette)
		draw.Draw(palettedImage, bounds, img, image.Point{}, draw.Over)
		anim.Image = append(anim.Image, palettedImage)
		anim.Delay = append(anim.Delay, gifDelay)
	}
	return gif.EncodeAll(w, anim)
}

func rgb(r, g, b uint8) color.Color {
	return &color.RGBA{R: r, G: g, B: b, A: 255}
}

func mix(c1, c2 color.Color) color.Color {
	r1, g1, b1, _ := c1.RGBA()
	r2, g2, b2, _ := c2.RGBA()
	return &color.RGBA{
		R: uint8((r1 + r2) >> 9),
		G: uint8((g1 + g2) >> 9),
		B: uint8((b1 + b2) >> 9),
		A: 255,
	}
}

func getPalette() []color.Color {
	lightSq := rgb(240, 217, 181)
	darkSq := rgb(181, 136, 99)

	var palette []color.Color
	pieceColors := []color.Color{color.White, color.Black, &color.Gray{Y: 128}}
	sqColors := []color.Color{lightSq, darkSq}

	palette = append(palette, pieceColors...)
	palette = append(palette, sqColors...)
	for _, pieceColor := range pieceColors {
		for _, sqColor := range sqColors {
			palette = append(palette, mix(pieceColor, sqColor))
		}
	}
	return palette
}
