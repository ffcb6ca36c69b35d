// Package quality scores how usable a detected face crop is for recognition.
package quality

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
)

// DefaultScore is returned when a crop is too degenerate to measure.
const DefaultScore = 50.0

const (
	sharpnessWeight  = 0.5
	brightnessWeight = 0.3
	sizeWeight       = 0.2

	sharpnessScale = 500.0
	midGray        = 127.0
	sizeRatioScale = 500.0
)

// Components holds the normalized 0..100 inputs of the weighted score.
type Components struct {
	Sharpness  float64 `json:"sharpness"`
	Brightness float64 `json:"brightness"`
	Size       float64 `json:"size"`
}

// Total returns the weighted sum, clamped and rounded to 2 decimals.
func (c Components) Total() float64 {
	total := sharpnessWeight*c.Sharpness + brightnessWeight*c.Brightness + sizeWeight*c.Size
	return round2(clamp(total, 0, 100))
}

type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns a value in [0, 100]. It never fails: crops that cannot be
// measured yield DefaultScore.
func (s *Scorer) Score(buf *pixel.Buffer, region domain.FaceRegion) float64 {
	c, ok := s.Components(buf, region)
	if !ok {
		return DefaultScore
	}
	return c.Total()
}

// Components measures the crop. ok is false when the crop is empty or
// narrower than two pixels in either direction.
func (s *Scorer) Components(buf *pixel.Buffer, region domain.FaceRegion) (Components, bool) {
	if buf == nil {
		return Components{}, false
	}

	bounds := buf.Bounds()
	rect := image.Rect(region.X, region.Y, region.X+region.W, region.Y+region.H).Intersect(bounds)
	if rect.Dx() < 2 || rect.Dy() < 2 {
		return Components{}, false
	}

	gray := imaging.Grayscale(imaging.Crop(buf.Image(), rect))
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	intensity := make([]float64, w*h)
	var sum float64
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			v := float64(row[x*4])
			intensity[y*w+x] = v
			sum += v
		}
	}
	mean := sum / float64(w*h)

	imageArea := float64(bounds.Dx() * bounds.Dy())
	ratio := float64(region.Area()) / imageArea

	return Components{
		Sharpness:  math.Min(laplacianVariance(intensity, w, h)/sharpnessScale*100, 100),
		Brightness: math.Max(100-math.Abs(mean-midGray)/midGray*100, 0),
		Size:       clamp(ratio*sizeRatioScale, 0, 100),
	}, true
}

// laplacianVariance applies the 4-neighbour Laplacian with reflect-101
// borders and returns the population variance of the response. w and h must
// both be at least 2.
func laplacianVariance(px []float64, w, h int) float64 {
	at := func(x, y int) float64 {
		return px[reflect101(y, h)*w+reflect101(x, w)]
	}

	n := float64(w * h)
	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			sum += l
			sumSq += l * l
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		return 0
	}
	return variance
}

func reflect101(i, n int) int {
	switch {
	case i < 0:
		return -i
	case i >= n:
		return 2*n - i - 2
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
