package io

// Section identifies one of the three independent reconstruction files
type Section int

const (
	SectionCameras Section = iota
	SectionImages
	SectionPoints
)

// Contains the minimal data needed to write a single reconstruction section
type WorkUnit struct {
	Writer  ReconstructionWriter
	Section Section
	Dir     string
}
