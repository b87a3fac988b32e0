package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12`, 12},
		{`12.5`, 12.5},
		{`"40"`, 40},
		{`" 7.25 "`, 7.25},
		{`"abc"`, 0},
		{`""`, 0},
		{`null`, 0},
		{`true`, 0},
		{`"NaN"`, 0},
		{`-3`, -3},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				N FlexNumber `json:"n"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"n":`+tt.in+`}`), &v))
			assert.Equal(t, tt.want, float64(v.N))
		})
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusOutForDelivery.Valid())
	assert.False(t, OrderStatus("Lost").Valid())
}
