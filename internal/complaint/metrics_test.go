package complaint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricCategory_BoundsLabelValues(t *testing.T) {
	for _, known := range []string{"general", "roads", "parks", "water"} {
		assert.Equal(t, known, metricCategory(known))
	}
	for _, free := range []string{"my neighbour's dog", "roads-2024", "", "ROADS"} {
		assert.Equal(t, "other", metricCategory(free), free)
	}
}
