package interval

import (
	"math"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

const (
	dayStartHour = 6  // inclusive
	dayEndHour   = 23 // exclusive, 23:00-05:59 is night
)

type buckets struct {
	all   []float64
	day   []float64
	night []float64
}

// normalize drops unusable observations and splits the remainder into
// day/night buckets. Non-positive prices are sensor or API noise, not
// valid zero-price periods. The bucket hour comes from the observation
// timestamp when one is present, which keeps sub-hourly feeds correct;
// otherwise the slot index modulo 24 is used.
func normalize(obs model.PriceObservations) buckets {
	b := buckets{}
	for i, o := range obs {
		if !usable(o.Price) {
			continue
		}
		hour := i % 24
		if !o.Timestamp.IsZero() {
			hour = o.Timestamp.UTC().Hour()
		}
		b.all = append(b.all, o.Price)
		if hour >= dayStartHour && hour < dayEndHour {
			b.day = append(b.day, o.Price)
		} else {
			b.night = append(b.night, o.Price)
		}
	}
	return b
}

func usable(price float64) bool {
	return price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0)
}
