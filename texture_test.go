package canvas

import (
	"image"
	"testing"
)

func TestTextureUV(t *testing.T) {
	tex := NewTexture(image.NewRGBA(image.Rect(0, 0, 64, 32)))

	tests := []struct {
		key  string
		want Region
	}{
		{"", Region{W: 64, H: 32}},
		{"default", Region{W: 64, H: 32}},
		{"8,4,16,16", Region{X: 8, Y: 4, W: 16, H: 16}},
		{"0,0,64,32", Region{W: 64, H: 32}},
		{"bogus", Region{W: 64, H: 32}},
		{"1,2,3", Region{W: 64, H: 32}},
		{"a,b,c,d", Region{W: 64, H: 32}},
	}
	for _, tt := range tests {
		if got := tex.UV(tt.key); got != tt.want {
			t.Errorf("UV(%q) = %+v; want %+v", tt.key, got, tt.want)
		}
	}
}

func TestRegionKeyRoundTrip(t *testing.T) {
	tex := NewTexture(image.NewRGBA(image.Rect(0, 0, 128, 128)))
	key := RegionKey(10, 20, 30, 40)
	got := tex.UV(key)
	want := Region{X: 10, Y: 20, W: 30, H: 40}
	if got != want {
		t.Errorf("UV(RegionKey(...)) = %+v; want %+v", got, want)
	}
}

func TestPow2Helpers(t *testing.T) {
	pow2 := []int{1, 2, 4, 64, 1024}
	for _, n := range pow2 {
		if !isPow2(n) {
			t.Errorf("isPow2(%d) = false", n)
		}
	}
	notPow2 := []int{0, -4, 3, 100, 50, 1000}
	for _, n := range notPow2 {
		if isPow2(n) {
			t.Errorf("isPow2(%d) = true", n)
		}
	}

	next := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 100: 128, 640: 1024, 480: 512}
	for in, want := range next {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d; want %d", in, got, want)
		}
	}
}

func TestBlendModeFactors(t *testing.T) {
	tests := []struct {
		mode     BlendMode
		src, dst BlendFactor
	}{
		{BlendModeNormal, BlendOne, BlendOneMinusSrcAlpha},
		{BlendModeMultiply, BlendSrcAlpha, BlendOneMinusSrcAlpha},
		{BlendMode("screen"), BlendOne, BlendOneMinusSrcAlpha},
		{BlendMode(""), BlendOne, BlendOneMinusSrcAlpha},
	}
	for _, tt := range tests {
		src, dst := tt.mode.Factors()
		if src != tt.src || dst != tt.dst {
			t.Errorf("%q.Factors() = (%v, %v); want (%v, %v)",
				tt.mode, src, dst, tt.src, tt.dst)
		}
	}
}
