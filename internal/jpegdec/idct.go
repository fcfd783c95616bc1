package jpegdec

import "math"

// unzig maps zig-zag coefficient order to natural order.
var unzig = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// idctCos[x][u] = C(u) * cos((2x+1)u*pi/16) / 2
var idctCos [8][8]float32

func init() {
	for x := 0; x < 8; x++ {
		for u := 0; u < 8; u++ {
			cu := 1.0
			if u == 0 {
				cu = 1 / math.Sqrt2
			}
			idctCos[x][u] = float32(cu * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16) / 2)
		}
	}
}

// idct transforms the dequantized block in natural order and stores level
// shifted samples into dst, stride bytes per row.
func idct(coef *[64]int32, dst []uint8, stride int) {
	var tmp [64]float32
	for v := 0; v < 8; v++ {
		row := coef[v*8 : v*8+8]
		for x := 0; x < 8; x++ {
			var sum float32
			for u := 0; u < 8; u++ {
				if row[u] != 0 {
					sum += idctCos[x][u] * float32(row[u])
				}
			}
			tmp[v*8+x] = sum
		}
	}
	for y := 0; y < 8; y++ {
		out := dst[y*stride : y*stride+8]
		for x := 0; x < 8; x++ {
			var sum float32
			for v := 0; v < 8; v++ {
				sum += idctCos[y][v] * tmp[v*8+x]
			}
			val := int(math.Floor(float64(sum) + 128.5))
			if val < 0 {
				val = 0
			} else if val > 255 {
				val = 255
			}
			out[x] = uint8(val)
		}
	}
}
