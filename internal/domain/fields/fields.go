package fields

import (
	"math"
	"strconv"
)

// Rating is the mean of a title's review scores.
type Rating float64

// NewRating rounds avg to two decimals. A nil avg means no reviews.
func NewRating(avg *float64) *Rating {
	if avg == nil {
		return nil
	}
	r := Rating(math.Round(*avg*100) / 100)
	return &r
}

func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(r), 'f', -1, 64)), nil
}
