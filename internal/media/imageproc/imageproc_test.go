package imageproc

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFitCropProducesExactTargetSize(t *testing.T) {
	cases := []struct {
		name           string
		srcW, srcH     int
		width, height  int
	}{
		{"landscape to horizontal", 3000, 1000, 1920, 1080},
		{"portrait to horizontal", 800, 2000, 1920, 1080},
		{"square to vertical", 1500, 1500, 1080, 1920},
		{"upscale small source", 200, 200, 1920, 1080},
		{"exact match", 1080, 1920, 1080, 1920},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tc.srcW, tc.srcH))
			out, err := FitCrop(src, tc.width, tc.height)
			if err != nil {
				t.Fatalf("FitCrop: %v", err)
			}
			b := out.Bounds()
			if b.Dx() != tc.width || b.Dy() != tc.height {
				t.Fatalf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.width, tc.height)
			}
		})
	}
}

func TestFitCropRejectsInvalidTargets(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := FitCrop(src, 0, 100); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := FitCrop(image.NewRGBA(image.Rect(0, 0, 0, 0)), 100, 100); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestFitCropCentersCrop(t *testing.T) {
	// Wide source with a white center column: after cover-scale and center
	// crop, the middle of the output must come from the middle of the source.
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 140; x < 160; x++ {
			src.Set(x, y, color.White)
		}
	}
	out, err := FitCrop(src, 100, 100)
	if err != nil {
		t.Fatalf("FitCrop: %v", err)
	}
	r, g, b, _ := out.At(50, 50).RGBA()
	if r < 0x8000 || g < 0x8000 || b < 0x8000 {
		t.Fatalf("center pixel not from source center: %v", out.At(50, 50))
	}
}

func TestFitCropFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.png")
	dstPath := filepath.Join(dir, "nested", "out.png")

	src := image.NewRGBA(image.Rect(0, 0, 640, 480))
	f, err := os.Create(srcPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	if err := FitCropFile(srcPath, dstPath, 1080, 1920); err != nil {
		t.Fatalf("FitCropFile: %v", err)
	}
	out, err := os.Open(dstPath)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	defer out.Close()
	decoded, err := png.Decode(out)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if decoded.Bounds().Dx() != 1080 || decoded.Bounds().Dy() != 1920 {
		t.Fatalf("result size = %v", decoded.Bounds())
	}
}

func TestPlaceholderDimensionsAndBackground(t *testing.T) {
	img := Placeholder(1920, 1080, "Podcast: 2 people (Ana, Ben)")
	b := img.Bounds()
	if b.Dx() != 1920 || b.Dy() != 1080 {
		t.Fatalf("size = %v", b)
	}
	r, g, bl, a := img.At(5, 5).RGBA()
	if r>>8 != 30 || g>>8 != 30 || bl>>8 != 30 || a>>8 != 255 {
		t.Fatalf("corner pixel = %d,%d,%d,%d", r>>8, g>>8, bl>>8, a>>8)
	}
}

func TestPlaceholderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images", "cover.png")
	if err := PlaceholderFile(path, 1080, 1920, "Podcast: 1 people (Solo)"); err != nil {
		t.Fatalf("PlaceholderFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 1080 || img.Bounds().Dy() != 1920 {
		t.Fatalf("size = %v", img.Bounds())
	}
}
