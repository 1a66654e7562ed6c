package geo

const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// DefaultGeohashPrecision yields cells of roughly 150 m, which matches the
// footprint of a residential job site well enough for suggestion purposes.
const DefaultGeohashPrecision = 7

// EncodeGeohash encodes a coordinate into a geohash of the given precision
// using interleaved binary subdivision of the lng/lat ranges, longitude bit
// first. Photos sharing a hash fall into the same spatial cell.
func EncodeGeohash(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = DefaultGeohashPrecision
	}

	minLat, maxLat := -90.0, 90.0
	minLng, maxLng := -180.0, 180.0

	hash := make([]byte, 0, precision)
	bit := 0
	ch := 0
	isLng := true

	for len(hash) < precision {
		if isLng {
			mid := (minLng + maxLng) / 2
			if lng >= mid {
				ch = ch<<1 | 1
				minLng = mid
			} else {
				ch <<= 1
				maxLng = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch = ch<<1 | 1
				minLat = mid
			} else {
				ch <<= 1
				maxLat = mid
			}
		}
		isLng = !isLng
		bit++
		if bit == 5 {
			hash = append(hash, geohashBase32[ch])
			bit = 0
			ch = 0
		}
	}
	return string(hash)
}
