package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/densemap/colmap_exporter/internal/predread"
	"github.com/densemap/colmap_exporter/internal/recon"
	"github.com/densemap/colmap_exporter/pkg"
	"github.com/densemap/colmap_exporter/tools"
)

const VERSION = "0.9.1"

const logo = `
          _                                                   _
  ___ ___| |_ __ ___   __ _ _ __     _____  ___ __   ___  _ __| |_ ___ _ __
 / __/ _ \ | '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \   / _ \ \/ / '_ \ / _ \| '__| __/ _ \ '__|
| (_| (_) | | | | | | | (_| | |_) | |  __/>  <| |_) | (_) | |  | ||  __/ |
 \___\___/|_|_| |_| |_|\__,_| .__/   \___/_/\_\ .__/ \___/|_|   \__\___|_|
                            |_|               |_|
        Dense geometry predictions to COLMAP sparse reconstructions
`

func main() {
	log.SetPrefix("[colmap_exporter] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)

	flagsGlobal := tools.ParseFlagsGlobal()

	args := flag.Args()
	if len(args) == 0 {
		if *flagsGlobal.Help {
			showHelp()
			return
		}
		if *flagsGlobal.Version {
			printVersion()
			return
		}
		log.Fatal("Please specify a subcommand [export|verify].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandExport:
		mainCommandExport(args)
	case tools.CommandVerify:
		mainCommandVerify(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [export|verify]", cmd)
	}
}

func mainCommandExport(args []string) {
	flags := tools.ParseFlagsForCommandExport(args)

	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if *flags.LogTimestamp {
		tools.EnableLoggerTimestamp()
	}

	format := recon.FormatText
	if *flags.Binary {
		format = recon.FormatBinary
	}

	opts := recon.ExportOptions{
		Input:               *flags.Input,
		Output:              *flags.Output,
		ConfidenceThreshold: *flags.ConfThreshold,
		Stride:              *flags.Stride,
		MaskSky:             *flags.MaskSky,
		MaskBlackBg:         *flags.MaskBlackBg,
		MaskWhiteBg:         *flags.MaskWhiteBg,
		Format:              format,
		WritePly:            *flags.Ply,
		Command:             tools.CommandExport,
	}

	log.Println(tools.FmtJSONString(flags))

	if msg, res := validateOptionsForCommandExport(&opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	err := pkg.NewExporter(tools.NewStandardFileFinder(), predread.NewFileLoader()).RunExport(&opts)
	if err != nil {
		log.Fatal("Error while exporting: ", err)
	}
}

// Validates the input options provided to the command line tool checking
// that input exists and numeric parameters are in range
func validateOptionsForCommandExport(opts *recon.ExportOptions) (string, bool) {
	if opts.Input == "" {
		return "Input folder must be specified", false
	}
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input folder not found", false
	}
	if opts.ConfidenceThreshold < 0 || opts.ConfidenceThreshold > 100 {
		return "conf-threshold parameter must be between 0 and 100", false
	}
	if opts.Stride < 1 {
		return "stride parameter must be at least 1", false
	}
	return "", true
}

func mainCommandVerify(args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)

	opts := recon.ExportOptions{
		Command: tools.CommandVerify,
		VerifyOptions: &recon.VerifyOptions{
			Input: *flags.Input,
		},
	}

	if opts.VerifyOptions.Input == "" {
		log.Fatal("Error parsing input parameters: Input folder must be specified")
	}
	if _, err := os.Stat(opts.VerifyOptions.Input); os.IsNotExist(err) {
		log.Fatal("Error parsing input parameters: Input folder not found")
	}

	if err := pkg.NewVerifier().RunVerify(&opts); err != nil {
		log.Fatal("Reconstructions differ: ", err)
	}
}

func printLogo() {
	fmt.Print(logo)
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("colmap_exporter converts per-image dense geometry predictions into a COLMAP sparse reconstruction")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
