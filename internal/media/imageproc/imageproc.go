package imageproc

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	_ "image/jpeg"
)

// FitCrop scales src so it fully covers width x height, then center-crops the
// overflow. The result is always exactly the requested size.
func FitCrop(src image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	scale := float64(width) / float64(srcW)
	if other := float64(height) / float64(srcH); other > scale {
		scale = other
	}
	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)
	if scaledW < width {
		scaledW = width
	}
	if scaledH < height {
		scaledH = height
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)

	offsetX := (scaledW - width) / 2
	offsetY := (scaledH - height) / 2
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Copy(out, image.Point{}, scaled, image.Rect(offsetX, offsetY, offsetX+width, offsetY+height), draw.Src, nil)
	return out, nil
}

// FitCropFile reads an image file, fit-crops it, and writes the result as PNG.
func FitCropFile(srcPath, dstPath string, width, height int) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	out, err := FitCrop(src, width, height)
	if err != nil {
		return err
	}
	return writePNG(dstPath, out)
}

// Placeholder renders a flat dark frame with a centered label, used when
// cover art generation is skipped or fails.
func Placeholder(width, height int, label string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	background := color.RGBA{R: 30, G: 30, B: 30, A: 255}
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if label == "" {
		return img
	}
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Round()
	x := (width - textWidth) / 2
	y := height/2 + face.Metrics().Ascent.Round()/2
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(label)
	return img
}

// PlaceholderFile writes a placeholder frame as PNG.
func PlaceholderFile(path string, width, height int, label string) error {
	return writePNG(path, Placeholder(width, height, label))
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
