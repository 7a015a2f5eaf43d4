package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"listingsmith/internal/imagedata"
	"listingsmith/internal/logging"
)

// DefaultFooterHeight is the height of the text band appended below the image.
const DefaultFooterHeight = 120

var (
	footerBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	primaryText      = color.NRGBA{A: 0xff}
	secondaryText    = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
)

// Summary is the product text drawn in the footer.
type Summary struct {
	Name     string
	Brand    string
	Type     string
	Material string
}

type line struct {
	text     string
	size     float64
	bold     bool
	color    color.Color
	baseline int
}

func (s Summary) lines() []line {
	out := []line{{
		text:     strings.TrimSpace(strings.TrimSpace(s.Brand) + " " + strings.TrimSpace(s.Name)),
		size:     18,
		bold:     true,
		color:    primaryText,
		baseline: 30,
	}}
	if t := strings.TrimSpace(s.Type); t != "" {
		out = append(out, line{text: t, size: 14, color: secondaryText, baseline: 55})
	}
	if m := strings.TrimSpace(s.Material); m != "" {
		out = append(out, line{text: m, size: 14, color: secondaryText, baseline: 80})
	}
	return out
}

// Options configures a Compositor.
type Options struct {
	// FooterHeight defaults to DefaultFooterHeight when non-positive.
	FooterHeight int
	// MaxPixels bounds width times height of decoded sources. Zero disables the check.
	MaxPixels int64
	// FontPath names a TTF, OTF or TTC file used for every footer line.
	// Empty, unreadable or unparsable paths fall back to the Go fonts.
	FontPath string
}

// Compositor appends a product text panel below an image.
type Compositor struct {
	footerHeight int
	maxPixels    int64
	regular      *opentype.Font
	bold         *opentype.Font
	logger       *slog.Logger
}

// New parses the fonts.
func New(opts Options, logger *slog.Logger) (*Compositor, error) {
	c := &Compositor{
		footerHeight: opts.FooterHeight,
		maxPixels:    opts.MaxPixels,
		logger:       logging.NewComponentLogger(logger, "compositor"),
	}
	if c.footerHeight <= 0 {
		c.footerHeight = DefaultFooterHeight
	}
	if path := strings.TrimSpace(opts.FontPath); path != "" {
		custom, err := loadFont(path)
		if err == nil {
			c.regular, c.bold = custom, custom
			return c, nil
		}
		logging.WarnWithContext(c.logger, "caption font unusable; using bundled fonts", "font_fallback",
			logging.String("font_path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set generation.font_path to a readable TTF, OTF or TTC file"),
		)
	}
	var err error
	if c.regular, err = opentype.Parse(goregular.TTF); err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	if c.bold, err = opentype.Parse(gobold.TTF); err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return c, nil
}

// loadFont parses a single font file or the first face of a collection.
func loadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	if fnt, err := opentype.Parse(data); err == nil {
		return fnt, nil
	}
	collection, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	fnt, err := collection.Font(0)
	if err != nil {
		return nil, fmt.Errorf("parse font collection: %w", err)
	}
	return fnt, nil
}

// Annotate returns source with a footer band holding the product name, type
// and material, encoded as a PNG data URI. When the source cannot be decoded
// or drawn, the original value is returned unchanged.
func (c *Compositor) Annotate(ctx context.Context, source string, summary Summary) string {
	if strings.TrimSpace(source) == "" {
		return source
	}
	if ctx != nil && ctx.Err() != nil {
		return source
	}
	out, err := c.annotate(source, summary)
	if err != nil {
		c.logger.Debug("annotation skipped; keeping source image",
			logging.Error(err),
			logging.String(logging.FieldEventType, "annotate_degraded"),
		)
		return source
	}
	return out
}

func (c *Compositor) annotate(source string, summary Summary) (string, error) {
	payload, err := imagedata.Parse(source)
	if err != nil {
		return "", err
	}
	header, _, err := image.DecodeConfig(bytes.NewReader(payload.Data))
	if err != nil {
		return "", fmt.Errorf("read image header: %w", err)
	}
	if c.maxPixels > 0 && int64(header.Width)*int64(header.Height) > c.maxPixels {
		return "", fmt.Errorf("image %dx%d exceeds %d pixels", header.Width, header.Height, c.maxPixels)
	}
	src, err := imaging.Decode(bytes.NewReader(payload.Data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return "", fmt.Errorf("empty image %dx%d", width, height)
	}
	canvas := imaging.New(width, height+c.footerHeight, footerBackground)
	canvas = imaging.Paste(canvas, src, image.Pt(0, 0))

	for _, ln := range summary.lines() {
		if ln.text == "" {
			continue
		}
		if err := c.drawCentered(canvas, ln, height); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return imagedata.Image{MIMEType: "image/png", Data: buf.Bytes()}.DataURI(), nil
}

func (c *Compositor) drawCentered(dst draw.Image, ln line, imageHeight int) error {
	fnt := c.regular
	if ln.bold {
		fnt = c.bold
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: ln.size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(ln.color), Face: face}
	advance := drawer.MeasureString(ln.text)
	x := (fixed.I(dst.Bounds().Dx()) - advance) / 2
	drawer.Dot = fixed.Point26_6{X: x, Y: fixed.I(imageHeight + ln.baseline)}
	drawer.DrawString(ln.text)
	return nil
}
