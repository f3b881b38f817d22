// Package artifact renders application and account cards as PNG images.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const ContentTypePNG = "image/png"

const (
	cardWidth  = 600
	cardHeight = 340
	lineHeight = 22
	marginX    = 32
)

var (
	applicationBackground = color.RGBA{R: 0xf4, G: 0xf6, B: 0xf8, A: 0xff}
	accountBackground     = color.RGBA{R: 0x0b, G: 0x5a, B: 0x81, A: 0xff}
	darkText              = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	lightText             = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	accentBar             = color.RGBA{R: 0xd4, G: 0xaf, B: 0x37, A: 0xff}
)

type ApplicationCard struct {
	ApplicantID string
	DisplayName string
	OriginLabel string
	Occupation  string
	Salary      string
}

type AccountCard struct {
	DisplayName   string
	AccountNumber string
	Expiry        string
}

// PNGRenderer draws cards with the built-in bitmap font.
type PNGRenderer struct {
	bankName string
}

func NewPNGRenderer(bankName string) *PNGRenderer {
	return &PNGRenderer{bankName: bankName}
}

func (r *PNGRenderer) ContentType() string { return ContentTypePNG }

func (r *PNGRenderer) RenderApplication(ctx context.Context, card ApplicationCard) ([]byte, error) {
	img := newCanvas(applicationBackground)
	fillRect(img, image.Rect(0, 0, cardWidth, 8), accentBar)

	lines := []string{
		r.bankName + " - account application",
		"",
		"Name:       " + card.DisplayName,
		"From:       " + card.OriginLabel,
		"Occupation: " + card.Occupation,
		"Salary:     " + card.Salary,
		"",
		"Applicant:  " + card.ApplicantID,
	}
	drawLines(img, lines, 48, darkText)

	return encode(ctx, img)
}

func (r *PNGRenderer) RenderAccountCard(ctx context.Context, card AccountCard) ([]byte, error) {
	img := newCanvas(accountBackground)
	fillRect(img, image.Rect(marginX, 120, marginX+56, 160), accentBar)

	drawLines(img, []string{r.bankName}, 48, lightText)
	drawLines(img, []string{
		groupDigits(card.AccountNumber),
		"",
		"EXP: " + card.Expiry,
		"",
		card.DisplayName,
	}, 200, lightText)

	return encode(ctx, img)
}

func newCanvas(bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawLines(img *image.RGBA, lines []string, top int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		d.Dot = fixed.P(marginX, top+i*lineHeight)
		d.DrawString(line)
	}
}

// groupDigits spaces a card number in groups of four for readability.
func groupDigits(s string) string {
	var b bytes.Buffer
	for i, r := range s {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encode(ctx context.Context, img image.Image) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("artifact.encode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("artifact.encode: %w", err)
	}
	return buf.Bytes(), nil
}
