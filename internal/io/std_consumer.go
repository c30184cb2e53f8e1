package io

import (
	"fmt"
	"sync"
)

type StandardConsumer struct{}

func NewStandardConsumer() *StandardConsumer {
	return &StandardConsumer{}
}

// Continually consumes WorkUnits submitted to the work channel, writing the
// corresponding reconstruction section. Stops when the work channel is closed
// or when a write fails; in that case the error is submitted to the error
// channel before quitting.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	for {
		work, ok := <-workchan
		if !ok {
			break
		}

		if err := c.doWork(work); err != nil {
			errchan <- err
			break
		}
	}

	waitGroup.Done()
}

func (c *StandardConsumer) doWork(workUnit *WorkUnit) error {
	switch workUnit.Section {
	case SectionCameras:
		return workUnit.Writer.WriteCameras(workUnit.Dir)
	case SectionImages:
		return workUnit.Writer.WriteImages(workUnit.Dir)
	case SectionPoints:
		return workUnit.Writer.WritePoints(workUnit.Dir)
	}
	return fmt.Errorf("unknown work unit section %d", workUnit.Section)
}
