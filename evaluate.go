package sequence

import (
	"fmt"

	"github.com/gosuri/uiprogress"
)

// Run steps the simulation to the clock's stop time, flushing output at
// the writer's interval. A nil writer runs headless; quiet suppresses the
// progress bar.
func (s *Simulation) Run(w *Writer, quiet bool) error {
	if w != nil && s.Clock.StepsTaken() == 0 {
		if err := w.Flush(s); err != nil {
			return err
		}
	}

	var bar *uiprogress.Bar
	if !quiet {
		uiprogress.Start()
		defer uiprogress.Stop()
		start, step := s.Clock.Start(), s.Clock.Step()
		bar = uiprogress.AddBar(s.Clock.NSteps()).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("%12.0f y", start+float64(b.Current())*step)
		})
		bar.Set(s.Clock.StepsTaken())
	}

	for !s.Clock.Done() {
		if err := s.Tick(); err != nil {
			return err
		}
		if bar != nil {
			bar.Incr()
		}
		if w != nil && s.Clock.StepsTaken()%w.Interval == 0 {
			if err := w.Flush(s); err != nil {
				return err
			}
		}
	}

	return s.Finish()
}
