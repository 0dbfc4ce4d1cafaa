package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 3, "Importing catalog")
	progress := ProgressCallback(bar)

	for done := 1; done <= 3; done++ {
		progress(done, 3)
	}

	assert.True(t, bar.IsFinished())
	assert.Contains(t, buf.String(), "Importing catalog")
}
