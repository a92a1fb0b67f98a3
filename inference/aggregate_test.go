package inference

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setOf(labels ...string) *PredictionSet {
	set := &PredictionSet{}
	for _, l := range labels {
		set.Predictions = append(set.Predictions, Prediction{Class: label(l), Points: []Point{{0, 0}}})
	}
	return set
}

func TestCountClasses(t *testing.T) {
	counts := CountClasses(setOf("READY", "OVERDUE", "READY", "MYSTERY"))

	assert.Equal(t, ClassCounts{"READY": 2, "OVERDUE": 1, "MYSTERY": 1}, counts)
	assert.Equal(t, 0, counts.Get("NOT_READY"))
	_, present := counts["NOT_READY"]
	assert.False(t, present, "absent labels are not zero-filled")
	assert.Equal(t, 4, counts.Total(), "total includes labels outside the known categories")
}

func TestCountClasses_Empty(t *testing.T) {
	assert.Empty(t, CountClasses(&PredictionSet{}))
	assert.Empty(t, CountClasses(nil))
	assert.Equal(t, 0, CountClasses(nil).Total())
}

func TestCountClasses_SumEqualsLength(t *testing.T) {
	labels := []string{"READY", "NOT_READY", "OVERDUE", "OTHER"}
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 50; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			picked := make([]string, n)
			for i := range picked {
				picked[i] = labels[rng.Intn(len(labels))]
			}
			set := setOf(picked...)

			sum := 0
			for _, v := range CountClasses(set) {
				sum += v
			}
			assert.Equal(t, set.Len(), sum)
		})
	}
}
