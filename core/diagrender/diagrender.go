// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Renders diagnostic images for verification runs: grayscale plane maps and
// difference histograms. Purely for eyeballing results, nothing here feeds
// back into a verdict.
package diagrender

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/flatcheck/core/core/frame"
	"github.com/flatcheck/core/core/utils"
	"golang.org/x/image/draw"
)

// invalidColour - pixels with no finite value stand out from the gray ramp
var invalidColour = color.RGBA{R: 128, G: 0, B: 0, A: 255}

// RenderPlane - maps a plane to an 8-bit grayscale ramp between its finite
// min and max. Non-finite cells are drawn in a solid marker colour. A
// degenerate value range renders mid-gray.
func RenderPlane(p frame.Plane) image.Image {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range p.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minVal = utils.MinOf(minVal, v)
		maxVal = utils.MaxOf(maxVal, v)
	}

	span := maxVal - minVal

	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := p.At(y, x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.SetRGBA(x, y, invalidColour)
				continue
			}

			level := uint8(127)
			if span > 0 {
				level = uint8(255.0 * (v - minVal) / span)
			}
			img.SetRGBA(x, y, color.RGBA{R: level, G: level, B: level, A: 255})
		}
	}

	return img
}

// ScaleToMaxWidth - downscales images wider than maxWidth, preserving the
// aspect ratio. Smaller images pass through untouched.
func ScaleToMaxWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}

	w := maxWidth
	h := int(float32(bounds.Dy()) / float32(bounds.Dx()) * float32(w))
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, img, bounds, draw.Over, nil)

	return dst
}

// RenderHistogram - draws a bar histogram of the finite samples with
// vertical marker lines, typically the mean and median. Non-finite samples
// and markers are ignored.
func RenderHistogram(values []float64, bins int, width int, height int, markers []float64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	finite := utils.FiniteOnly(values)
	if len(finite) == 0 || bins < 1 {
		return img
	}

	minVal := finite[0]
	maxVal := finite[0]
	for _, v := range finite {
		minVal = utils.MinOf(minVal, v)
		maxVal = utils.MaxOf(maxVal, v)
	}
	span := maxVal - minVal
	if span <= 0 {
		// All samples identical, show a single full-height bar in the middle
		drawBar(img, width/2, width/(bins*2)+1, height, height)
		return img
	}

	counts := make([]int, bins)
	for _, v := range finite {
		bin := int(float64(bins) * (v - minVal) / span)
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}

	maxCount := 0
	for _, c := range counts {
		maxCount = utils.MaxOf(maxCount, c)
	}

	barWidth := width / bins
	if barWidth < 1 {
		barWidth = 1
	}
	for bin, c := range counts {
		barHeight := int(float64(height) * float64(c) / float64(maxCount))
		drawBar(img, bin*barWidth, barWidth, barHeight, height)
	}

	markerColour := color.RGBA{R: 200, G: 0, B: 0, A: 255}
	for _, m := range markers {
		if math.IsNaN(m) || math.IsInf(m, 0) || m < minVal || m > maxVal {
			continue
		}
		x := int(float64(width-1) * (m - minVal) / span)
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, markerColour)
		}
	}

	return img
}

func drawBar(img *image.RGBA, xStart int, barWidth int, barHeight int, imgHeight int) {
	barColour := color.RGBA{R: 90, G: 90, B: 90, A: 255}
	for x := xStart; x < xStart+barWidth && x < img.Rect.Dx(); x++ {
		for y := imgHeight - barHeight; y < imgHeight; y++ {
			if y < 0 {
				continue
			}
			img.SetRGBA(x, y, barColour)
		}
	}
}

// GetPNGBytes - encodes an image as PNG for storage through FileAccess
func GetPNGBytes(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	writer := bufio.NewWriter(&b)

	if err := png.Encode(writer, img); err != nil {
		return nil, fmt.Errorf("failed to encode diagnostic image: %v", err)
	}

	if err := writer.Flush(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
