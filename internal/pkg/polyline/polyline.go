// Package polyline decodes Google encoded-polyline geometry strings.
package polyline

import "github.com/kpetrou/villago/internal/core/domain"

const (
	chunkBits   = 5
	continueBit = 0x20
	asciiOffset = 63
	scaleFactor = 1e5
)

// Decode converts an encoded polyline into its coordinate sequence.
//
// Each value is a zig-zag signed, 5-bit-chunked varint offset by 63, and
// every coordinate is a cumulative delta from the previous one, so a single
// corrupt chunk silently skews all subsequent points. Decode is total: it
// never fails, it simply stops at the end of the last complete pair and
// leaves plausibility checks to the caller.
func Decode(encoded string) []domain.GeoPoint {
	if encoded == "" {
		return nil
	}

	points := make([]domain.GeoPoint, 0, len(encoded)/4)
	var lat, lon int64
	i := 0

	for i < len(encoded) {
		dLat, next, ok := decodeValue(encoded, i)
		if !ok {
			break
		}
		dLon, after, ok := decodeValue(encoded, next)
		if !ok {
			break
		}
		lat += dLat
		lon += dLon
		points = append(points, domain.GeoPoint{
			Lat: float64(lat) / scaleFactor,
			Lon: float64(lon) / scaleFactor,
		})
		i = after
	}

	return points
}

// decodeValue reads one zig-zag varint starting at index i. ok is false if
// the string ends mid-value.
func decodeValue(s string, i int) (value int64, next int, ok bool) {
	var result int64
	shift := uint(0)

	for {
		if i >= len(s) {
			return 0, i, false
		}
		b := int64(s[i]) - asciiOffset
		i++
		result |= (b & 0x1f) << shift
		shift += chunkBits
		if b < continueBit {
			break
		}
	}

	// Undo zig-zag encoding.
	if result&1 != 0 {
		return ^(result >> 1), i, true
	}
	return result >> 1, i, true
}
