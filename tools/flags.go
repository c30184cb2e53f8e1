package tools

import (
	"flag"
)

const (
	CommandExport = "export"
	CommandVerify = "verify"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type ExporterFlags struct {
	Input         *string  `json:"input"`
	Output        *string  `json:"output"`
	ConfThreshold *float64 `json:"conf_threshold"`
	Stride        *int     `json:"stride"`
	MaskSky       *bool
	MaskBlackBg   *bool
	MaskWhiteBg   *bool
	Binary        *bool
	Ply           *bool
}

type FlagsForCommandExport struct {
	ExporterFlags
	Silent       *bool
	LogTimestamp *bool
	Help         *bool
	Version      *bool
}

type FlagsForCommandVerify struct {
	Input *string `json:"input"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of colmap_exporter.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandExport(args []string) FlagsForCommandExport {
	flagCommand := flag.NewFlagSet("command-export", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input folder containing the source images and their prediction dumps.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "colmap_output", "Specifies the output folder where to write the reconstruction files.")
	confThreshold := defineFloat64FlagCommand(flagCommand, "conf-threshold", "c", 50.0, "Confidence threshold (0-100) for including points, as a percentage of the maximum confidence observed over all images.")
	stride := defineIntFlagCommand(flagCommand, "stride", "s", 1, "Stride for point sampling over the prediction grids (higher = fewer points).")
	maskSky := defineBoolFlagCommand(flagCommand, "mask-sky", "", false, "Filter out points likely to be sky.")
	maskBlackBg := defineBoolFlagCommand(flagCommand, "mask-black-bg", "", false, "Filter out points with very dark/black color.")
	maskWhiteBg := defineBoolFlagCommand(flagCommand, "mask-white-bg", "", false, "Filter out points with very bright/white color.")
	binary := defineBoolFlagCommand(flagCommand, "binary", "b", false, "Output binary COLMAP files instead of text.")
	plyPreview := defineBoolFlagCommand(flagCommand, "ply", "", false, "Additionally export the merged point cloud as points.ply for preview.")

	silent := defineBoolFlagCommand(flagCommand, "silent", "", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of colmap_exporter.")

	flagCommand.Parse(args)

	return FlagsForCommandExport{
		ExporterFlags: ExporterFlags{
			Input:         input,
			Output:        output,
			ConfThreshold: confThreshold,
			Stride:        stride,
			MaskSky:       maskSky,
			MaskBlackBg:   maskBlackBg,
			MaskWhiteBg:   maskWhiteBg,
			Binary:        binary,
			Ply:           plyPreview,
		},
		Silent:       silent,
		LogTimestamp: logTimestamp,
		Help:         help,
		Version:      version,
	}
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the folder holding both the text and the binary reconstruction to compare.")

	flagCommand.Parse(args)

	return FlagsForCommandVerify{
		Input: input,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
