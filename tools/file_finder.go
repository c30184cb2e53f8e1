package tools

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/densemap/colmap_exporter/internal/recon"
)

// Image file extensions the exporter accepts as input
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

type FileFinder interface {
	GetImageFilesToProcess(opts *recon.ExportOptions) []string
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

// Collects the image files directly inside the input folder, sorted by name
// so the image ordering, and with it all point ids, is deterministic.
func (f *StandardFileFinder) GetImageFilesToProcess(opts *recon.ExportOptions) []string {
	var imageFiles = make([]string, 0)

	baseInfo, _ := os.Stat(opts.Input)
	err := filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			}
			if imageExtensions[strings.ToLower(filepath.Ext(info.Name()))] {
				imageFiles = append(imageFiles, path)
			}
			return nil
		},
	)

	if err != nil {
		log.Fatal(err)
	}

	sort.Strings(imageFiles)
	return imageFiles
}
