package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinner_StartStop(t *testing.T) {
	s := NewSpinner(SpinnerLine)
	assert.Equal(t, "-", s.Current(), "Line spinner should start at first frame")

	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	assert.NotEmpty(t, s.Current(), "Spinner should always report a frame")

	// Stopping twice must not panic or block.
	s.Stop()
}

func TestProgressIndicator_Lifecycle(t *testing.T) {
	pi := NewProgressIndicator("evaluate light curve", 10, QuietProgressConfig())

	for i := 0; i < 10; i++ {
		pi.Increment()
	}
	assert.Equal(t, 10, pi.current, "Increment should advance to total")

	pi.Finish()
}

func TestProgressIndicator_UpdateWithMessage(t *testing.T) {
	pi := NewProgressIndicator("render surface", 4, ProgressConfig{ShowProgress: true})
	pi.UpdateWithMessage(2, "row 50/100")
	assert.Equal(t, 2, pi.current, "Update should set the current value")
	pi.FinishWithMessage("written to out.pgm")
}

func TestStepLogger_KnownAndUnknownSteps(t *testing.T) {
	sl := NewStepLogger("flux pipeline", []string{"load config", "build system", "evaluate", "write artifacts"}, QuietProgressConfig())

	sl.StartStep("load config")
	assert.Equal(t, 0, sl.current, "First step should be index 0")
	sl.CompleteStep()

	sl.StartStep("not a step")
	assert.Equal(t, 0, sl.current, "Unknown step should not move the cursor")

	sl.StartStep("evaluate")
	assert.Equal(t, 2, sl.current, "Steps may be started out of order")

	sl.Finish()
}
