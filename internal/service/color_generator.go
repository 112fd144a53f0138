package service

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorGenerator hands out visually well-separated participant colors by
// walking the hue wheel in golden-ratio steps. Unlike a random pick from a
// fixed palette, consecutive joiners can never collide.
type ColorGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewColorGenerator() *ColorGenerator {
	return &ColorGenerator{}
}

const goldenRatio = 0.618033988749895

// Next returns the next hex color.
func (g *ColorGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	hue := float64(g.counter) * goldenRatio
	hue = hue - float64(int(hue))
	g.counter++

	return colorful.Hsl(hue*360, 0.85, 0.55).Hex()
}
