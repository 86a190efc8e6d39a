package mempressure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporter_StartsAtNormal(t *testing.T) {
	r := NewReporter(1000, 2000)

	assert.Equal(t, LevelNormal, r.Level())
}

func TestReporter_EscalatesToElevated(t *testing.T) {
	r := NewReporter(1000, 2000)

	r.Report("writer-a", 1500)

	assert.Equal(t, LevelElevated, r.Level())
}

func TestReporter_EscalatesToCritical(t *testing.T) {
	r := NewReporter(1000, 2000)

	r.Report("writer-a", 2500)

	assert.Equal(t, LevelCritical, r.Level())
}

func TestReporter_SumsAcrossSources(t *testing.T) {
	r := NewReporter(1000, 2000)

	r.Report("writer-a", 600)
	r.Report("writer-b", 600)

	assert.Equal(t, LevelElevated, r.Level())
}

func TestReporter_ZeroReportClearsSource(t *testing.T) {
	r := NewReporter(1000, 2000)

	r.Report("writer-a", 1500)
	assert.Equal(t, LevelElevated, r.Level())

	r.Report("writer-a", 0)
	assert.Equal(t, LevelNormal, r.Level())
}

func TestReporter_RepeatedReportDoesNotDoubleCount(t *testing.T) {
	r := NewReporter(1000, 2000)

	r.Report("writer-a", 600)
	r.Report("writer-a", 600)
	r.Report("writer-a", 600)

	assert.Equal(t, LevelNormal, r.Level())
}
