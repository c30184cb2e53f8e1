package io

import "sync"

type StandardProducer struct {
	dir    string
	writer ReconstructionWriter
}

func NewStandardProducer(dir string, writer ReconstructionWriter) *StandardProducer {
	return &StandardProducer{
		dir:    dir,
		writer: writer,
	}
}

// Submits one WorkUnit per reconstruction section to the provided work
// channel. Closes the channel when all work is submitted.
func (p *StandardProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup) {
	for _, section := range []Section{SectionCameras, SectionImages, SectionPoints} {
		work <- &WorkUnit{
			Writer:  p.writer,
			Section: section,
			Dir:     p.dir,
		}
	}
	close(work)
	wg.Done()
}
