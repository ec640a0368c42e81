// Package color assigns display colors to tags that were created
// without one.
package color

import (
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

// ForTag derives a stable hex color from a tag's normalized name, so
// the same name renders the same color across devices and the color
// survives tag recreation.
func ForTag(name string) string {
	normalized := domain.NormalizeTagName(name)
	h := 0
	for _, c := range normalized {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	hue := float64(h % 360)

	// S=0.4, L=0.65 keeps colors readable on both light and dark tag chips.
	r, g, b := hslToRGB(hue, 0.4, 0.65)
	return rgbToHex(r, g, b)
}

func rgbToHex(r, g, b uint8) string {
	const hexdigits = "0123456789ABCDEF"
	return string([]byte{
		'#',
		hexdigits[r>>4], hexdigits[r&0xf],
		hexdigits[g>>4], hexdigits[g&0xf],
		hexdigits[b>>4], hexdigits[b&0xf],
	})
}

// hslToRGB converts HSL to RGB. h is in degrees, s and l in [0, 1].
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	var r1, g1, b1 float64
	if s == 0 {
		r1, g1, b1 = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q

		r1 = hueToRGB(p, q, h+1.0/3.0)
		g1 = hueToRGB(p, q, h)
		b1 = hueToRGB(p, q, h-1.0/3.0)
	}

	r = uint8(r1 * 255)
	g = uint8(g1 * 255)
	b = uint8(b1 * 255)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
