package recon

import "strings"

type OutputFormat string

const (
	// Human readable reconstruction: cameras.txt, images.txt, points3D.txt
	FormatText OutputFormat = "TEXT"

	// Little-endian binary reconstruction: cameras.bin, images.bin, points3D.bin
	FormatBinary OutputFormat = "BINARY"
)

func (f OutputFormat) String() string {
	if f == FormatText {
		return "TEXT"
	} else if f == FormatBinary {
		return "BINARY"
	}
	return ""
}

func ParseOutputFormat(value string) OutputFormat {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "TEXT" {
		return FormatText
	} else if normalizedValue == "BINARY" {
		return FormatBinary
	}
	return ""
}

// Contains the options needed for the export process
type ExportOptions struct {
	Input               string       // Input folder containing the source images and prediction dumps
	Output              string       // Output folder where to write the reconstruction files
	ConfidenceThreshold float64      // Confidence cutoff as a percentage (0-100) of the global max confidence
	Stride              int          // Sampling stride over the prediction grids
	QuantizationScale   float64      // Scale applied to world coordinates before rounding to dedup keys
	MaskSky             bool         // Drop points classified as sky
	MaskBlackBg         bool         // Drop points classified as black background
	MaskWhiteBg         bool         // Drop points classified as white background
	Format              OutputFormat // Serialization to emit
	WritePly            bool         // Additionally export the merged cloud as points.ply

	Command       string
	VerifyOptions *VerifyOptions
}

type VerifyOptions struct {
	Input string // Folder holding both the text and the binary reconstruction
}

func (opt *ExportOptions) Copy() *ExportOptions {
	newOpt := &ExportOptions{
		Input:               opt.Input,
		Output:              opt.Output,
		ConfidenceThreshold: opt.ConfidenceThreshold,
		Stride:              opt.Stride,
		QuantizationScale:   opt.QuantizationScale,
		MaskSky:             opt.MaskSky,
		MaskBlackBg:         opt.MaskBlackBg,
		MaskWhiteBg:         opt.MaskWhiteBg,
		Format:              opt.Format,
		WritePly:            opt.WritePly,
		Command:             opt.Command,
	}

	if opt.VerifyOptions != nil {
		verifyOpt := *opt.VerifyOptions
		newOpt.VerifyOptions = &verifyOpt
	}

	return newOpt
}
