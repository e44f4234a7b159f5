package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"whole renders as integer", 1998, "1998"},
		{"negative whole", -3, "-3"},
		{"fraction renders two decimals", 8.432, "8.43"},
		{"half", 2.5, "2.50"},
		{"zero", 0, "0"},
		{"nan is placeholder", math.NaN(), Placeholder},
		{"inf is placeholder", math.Inf(1), Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
		})
	}
}

func TestFixed2(t *testing.T) {
	assert.Equal(t, "8.00", Fixed2(8))
	assert.Equal(t, "7.25", Fixed2(7.249999999999999))
	assert.Equal(t, Placeholder, Fixed2(math.NaN()))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "+1.25%", Percent(1.25))
	assert.Equal(t, "-0.50%", Percent(-0.5))
	assert.Equal(t, "+0.00%", Percent(0))
	assert.Equal(t, Placeholder, Percent(math.Inf(-1)))
}

func TestRank(t *testing.T) {
	assert.Equal(t, "3", Rank(3))
	assert.Equal(t, "2.5", Rank(2.5))
	assert.Equal(t, Placeholder, Rank(math.NaN()))
}

func TestValueWithYear(t *testing.T) {
	assert.Equal(t, "8.43 (2021)", ValueWithYear(8.43, 2021))
	assert.Equal(t, "8 (2019)", ValueWithYear(8, 2019))
	assert.Equal(t, Placeholder, ValueWithYear(math.NaN(), 2021))
}

func TestMaybeVariants(t *testing.T) {
	v := 4.2
	assert.Equal(t, "4.20", MaybeFixed2(&v))
	assert.Equal(t, Placeholder, MaybeFixed2(nil))
	assert.Equal(t, "+4.20%", MaybePercent(&v))
	assert.Equal(t, Placeholder, MaybePercent(nil))
}
