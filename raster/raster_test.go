package raster

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestFromImageGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 10)
	}
	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if img.Mode != Gray || img.Width != 3 || img.Height != 2 {
		t.Fatalf("got %v %dx%d, want L 3x2", img.Mode, img.Width, img.Height)
	}
	if !bytes.Equal(img.Pix, src.Pix) {
		t.Errorf("pix = %v, want %v", img.Pix, src.Pix)
	}
	if err := img.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromImageSubImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	sub := src.SubImage(image.Rect(1, 1, 3, 3))
	img, err := FromImage(sub)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	want := []byte{5, 6, 9, 10}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("pix = %v, want %v", img.Pix, want)
	}
}

func TestFromImageOpaqueBecomesRGB(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	for i := range src.Y {
		src.Y[i] = 128
	}
	for i := range src.Cb {
		src.Cb[i] = 128
		src.Cr[i] = 128
	}
	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if img.Mode != RGB {
		t.Fatalf("mode = %v, want RGB", img.Mode)
	}
	if len(img.Pix) != 4*4*3 {
		t.Fatalf("len(pix) = %d, want %d", len(img.Pix), 4*4*3)
	}
	if img.Pix[0] != 128 || img.Pix[1] != 128 || img.Pix[2] != 128 {
		t.Errorf("first pixel = %v, want mid gray", img.Pix[:3])
	}
}

// conservativeRGBA never claims to be opaque, like decoders that report
// alpha by plane presence rather than content.
type conservativeRGBA struct{ *image.RGBA }

func (conservativeRGBA) Opaque() bool { return false }

func TestFromImageScansAlphaWhenOpaqueIsConservative(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range rgba.Pix {
		rgba.Pix[i] = 0xff
	}
	rgba.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 0xff})

	img, err := FromImage(conservativeRGBA{rgba})
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if img.Mode != RGB {
		t.Fatalf("mode = %v, want RGB", img.Mode)
	}
	if len(img.Pix) != 3*2*3 {
		t.Fatalf("len(pix) = %d, want %d", len(img.Pix), 3*2*3)
	}
	if got := img.Pix[(1*3+1)*3:][:3]; !bytes.Equal(got, []byte{10, 20, 30}) {
		t.Errorf("pixel (1,1) = %v, want [10 20 30]", got)
	}
}

func TestFromImageTranslucentBecomesRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if img.Mode != RGBA {
		t.Fatalf("mode = %v, want RGBA", img.Mode)
	}
	if !bytes.Equal(img.Pix, src.Pix) {
		t.Errorf("pix = %v, want %v", img.Pix, src.Pix)
	}
}

func TestFromImagePaletted(t *testing.T) {
	pal := color.Palette{color.Black, color.White, color.NRGBA{R: 255, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	src.Pix = []byte{0, 1, 2, 1}
	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if img.Mode != Indexed || len(img.Palette) != 3 {
		t.Fatalf("got mode %v with %d colors", img.Mode, len(img.Palette))
	}
	src.Palette[0] = color.White
	if img.Palette[0] == color.White {
		t.Errorf("palette shares storage with the source")
	}
}

func TestFromImageEmpty(t *testing.T) {
	if _, err := FromImage(nil); err == nil {
		t.Errorf("FromImage(nil) succeeded")
	}
	if _, err := FromImage(image.NewRGBA(image.Rect(0, 0, 0, 5))); err == nil {
		t.Errorf("FromImage(0x5) succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		img     *Image
		wantErr bool
	}{
		{"ok rgb", &Image{Mode: RGB, Width: 2, Height: 2, Pix: make([]byte, 12)}, false},
		{"short pix", &Image{Mode: RGBA, Width: 2, Height: 2, Pix: make([]byte, 15)}, true},
		{"bad mode", &Image{Mode: 42, Width: 1, Height: 1, Pix: make([]byte, 1)}, true},
		{"zero width", &Image{Mode: Gray, Width: 0, Height: 1}, true},
		{"indexed without palette", &Image{Mode: Indexed, Width: 1, Height: 1, Pix: []byte{0}}, true},
		{"nil", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.img.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImageRGBRoundTrip(t *testing.T) {
	img := &Image{Mode: RGB, Width: 2, Height: 1, Pix: []byte{10, 20, 30, 40, 50, 60}}
	view := img.Image()
	back, err := FromImage(view)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if back.Mode != RGB || !bytes.Equal(back.Pix, img.Pix) {
		t.Errorf("round trip = %v %v, want RGB %v", back.Mode, back.Pix, img.Pix)
	}
}
