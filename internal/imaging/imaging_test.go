package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// createGreyImage returns a w x h grey image that is black except for the
// white rectangle white.
func createGreyImage(w, h int, white image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := white.Min.Y; y < white.Max.Y; y++ {
		for x := white.Min.X; x < white.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

// writePNG encodes img into a temporary file and returns its path.
func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	path := writePNG(t, createGreyImage(8, 6, image.Rect(2, 2, 4, 4)))
	cache := NewImageCache()

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load should return the cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}

	cache.Evict(path)
	if cache.Len() != 0 {
		t.Error("Evict should remove the image")
	}
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	path := writePNG(t, createGreyImage(4, 4, image.Rect(0, 0, 2, 2)))
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
	cache.Clear()
	if cache.Len() != 0 {
		t.Error("Clear should empty the cache")
	}
}

func TestLoadImageInfo(t *testing.T) {
	path := writePNG(t, createGreyImage(8, 6, image.Rect(0, 0, 1, 1)))
	info, err := LoadImageInfo(NewImageCache(), path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 8 || info.Height != 6 || info.Format != "png" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestObjectFromImage(t *testing.T) {
	img := createGreyImage(10, 8, image.Rect(2, 3, 5, 6))

	tests := []struct {
		name     string
		opts     ConvertOptions
		wantBox  domain.BBox
		wantType object.PixelType
	}{
		{"whole", ConvertOptions{}, domain.BBox{Line1: 0, LastLn: 7, Kol1: 0, LastKl: 9}, object.PixelUByte},
		{"crop", ConvertOptions{Crop: image.Rect(1, 2, 6, 7)}, domain.BBox{Line1: 2, LastLn: 6, Kol1: 1, LastKl: 5}, object.PixelUByte},
		{"colour", ConvertOptions{Colour: true}, domain.BBox{Line1: 0, LastLn: 7, Kol1: 0, LastKl: 9}, object.PixelRGBA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ObjectFromImage(img, tt.opts)
			if err != nil {
				t.Fatalf("ObjectFromImage failed: %v", err)
			}
			if obj.Domain().Kind() != domain.KindRect {
				t.Errorf("domain kind = %v, want rect", obj.Domain().Kind())
			}
			if got := obj.Domain().BBox(); got != tt.wantBox {
				t.Errorf("bbox = %v, want %v", got, tt.wantBox)
			}
			if obj.Values().Type != tt.wantType {
				t.Errorf("pixel type = %v, want %v", obj.Values().Type, tt.wantType)
			}
			if v := obj.Values().Value(3, 2); v != 255 {
				t.Errorf("sample at line 3 col 2 = %v, want 255", v)
			}
			if v := obj.Values().Value(6, 5); v != 0 {
				t.Errorf("sample at line 6 col 5 = %v, want 0", v)
			}
		})
	}

	if _, err := ObjectFromImage(img, ConvertOptions{Crop: image.Rect(5, 5, 20, 20)}); !errors.Is(err, domain.ErrDomainDataInvalid) {
		t.Errorf("crop outside image: err = %v", err)
	}
}

func TestThreshold(t *testing.T) {
	img := createGreyImage(10, 8, image.Rect(2, 3, 5, 6))
	obj, err := ObjectFromImage(img, ConvertOptions{})
	if err != nil {
		t.Fatalf("ObjectFromImage failed: %v", err)
	}

	high, err := Threshold(obj, 128, ThresholdHigh)
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	want := domain.BBox{Line1: 3, LastLn: 5, Kol1: 2, LastKl: 4}
	if high.Size() != 9 || high.Domain().BBox() != want {
		t.Errorf("high: size=%d box=%v", high.Size(), high.Domain().BBox())
	}
	if high.Values() != obj.Values() {
		t.Error("threshold should share the input's values")
	}

	low, err := Threshold(obj, 128, ThresholdLow)
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	if low.Size() != 80-9 {
		t.Errorf("low: size=%d, want 71", low.Size())
	}

	none, _ := Threshold(obj, 256, ThresholdHigh)
	if none.Kind() != object.KindEmpty {
		t.Error("threshold above every sample should give Empty")
	}

	d, _ := domain.NewRect(0, 0, 0, 0)
	bare, _ := object.New2D(d, nil)
	if _, err := Threshold(bare, 1, ThresholdHigh); !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("object without values: err = %v", err)
	}
}

func TestMaskAndStack(t *testing.T) {
	a := createGreyImage(6, 6, image.Rect(1, 1, 3, 3))
	blank := createGreyImage(6, 6, image.Rectangle{})
	b := createGreyImage(6, 6, image.Rect(1, 1, 4, 2))

	mask, err := MaskFromImage(a, 128)
	if err != nil {
		t.Fatalf("MaskFromImage failed: %v", err)
	}
	if mask.Size() != 4 || mask.HasValues() {
		t.Errorf("mask: size=%d values=%v", mask.Size(), mask.HasValues())
	}

	stack, err := StackFromImages([]image.Image{a, blank, b}, 128, domain.VoxelSize{X: 1, Y: 1, Z: 4})
	if err != nil {
		t.Fatalf("StackFromImages failed: %v", err)
	}
	if stack.Kind() != object.Kind3D || stack.Size() != 7 {
		t.Fatalf("stack: kind=%v size=%d", stack.Kind(), stack.Size())
	}
	if stack.Planes().Plane(1) != nil {
		t.Error("blank slice should leave its plane absent")
	}
	m, err := Measure(stack)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if m.PlaneCount != 2 || m.Physical != 28 || m.LineCount != 3 {
		t.Errorf("unexpected measurement %+v", m)
	}

	if _, err := StackFromImages(nil, 128, domain.UnitVoxel); !errors.Is(err, domain.ErrNullInput) {
		t.Errorf("empty stack: err = %v", err)
	}
}

func TestColourThreshold(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	red := color.RGBA{R: 250, G: 10, B: 10, A: 255}
	blue := color.RGBA{R: 10, G: 10, B: 250, A: 255}
	for x := 0; x < 4; x++ {
		img.SetRGBA(x, 0, red)
		img.SetRGBA(x, 1, blue)
	}
	img.SetRGBA(3, 0, blue)

	obj, err := ObjectFromImage(img, ConvertOptions{Colour: true})
	if err != nil {
		t.Fatalf("ObjectFromImage failed: %v", err)
	}
	target, err := ParseColour("#ff0000")
	if err != nil {
		t.Fatalf("ParseColour failed: %v", err)
	}
	reds, err := ColourThreshold(obj, target, 0.2)
	if err != nil {
		t.Fatalf("ColourThreshold failed: %v", err)
	}
	want := domain.BBox{Line1: 0, LastLn: 0, Kol1: 0, LastKl: 2}
	if reds.Size() != 3 || reds.Domain().BBox() != want {
		t.Errorf("reds: size=%d box=%v", reds.Size(), reds.Domain().BBox())
	}
	hex, err := MeanColour(reds)
	if err != nil {
		t.Fatalf("MeanColour failed: %v", err)
	}
	if hex != "#fa0a0a" {
		t.Errorf("MeanColour = %s, want #fa0a0a", hex)
	}

	grey, _ := ObjectFromImage(img, ConvertOptions{})
	if _, err := ColourThreshold(grey, target, 0.2); !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("grey object: err = %v", err)
	}
	if _, err := ParseColour("red"); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("bad colour: err = %v", err)
	}
}

func TestNamedRegionAndCrop(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)
	tests := []struct {
		region string
		want   image.Rectangle
	}{
		{"top-left", image.Rect(0, 0, 50, 40)},
		{"bottom-right", image.Rect(50, 40, 100, 80)},
		{"right-half", image.Rect(50, 0, 100, 80)},
		{"center", image.Rect(25, 20, 75, 60)},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, err := NamedRegion(bounds, tt.region)
			if err != nil {
				t.Fatalf("NamedRegion failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("NamedRegion = %v, want %v", got, tt.want)
			}
		})
	}
	if _, err := NamedRegion(bounds, "middle"); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("unknown region: err = %v", err)
	}

	obj, _ := ObjectFromImage(createGreyImage(10, 10, image.Rect(0, 0, 10, 10)), ConvertOptions{})
	r, _ := NamedRegion(image.Rect(0, 0, 10, 10), "top-left")
	crop, err := CropObject(obj, RectBox(r))
	if err != nil {
		t.Fatalf("CropObject failed: %v", err)
	}
	if crop.Size() != 25 || crop.Values() != obj.Values() {
		t.Errorf("crop: size=%d shared=%v", crop.Size(), crop.Values() == obj.Values())
	}
}

func TestPolygonAndMeasure(t *testing.T) {
	obj, err := PolygonObject([]image.Point{{0, 0}, {4, 0}, {4, 3}, {0, 3}})
	if err != nil {
		t.Fatalf("PolygonObject failed: %v", err)
	}
	m, err := Measure(obj)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if m.Size != 12 || m.LineCount != 3 || m.FillRatio != 1 || m.Kind != "2d" {
		t.Errorf("unexpected measurement %+v", m)
	}

	empty, err := Measure(object.NewEmpty())
	if err != nil || empty.Size != 0 || empty.BBox != nil {
		t.Errorf("empty: %+v, %v", empty, err)
	}

	// A rect is measured without visiting its lines.
	d, err := domain.NewRect(0, 1<<40, 0, 1)
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}
	tall, _ := object.New2D(d, nil)
	m, err = Measure(tall)
	if err != nil || m.LineCount != 1<<40+1 || m.Size != (1<<40+1)*2 {
		t.Errorf("tall rect: %+v, %v", m, err)
	}
}
