package pkg

import (
	"errors"
	"fmt"
	"log"
	"path"
	"runtime"
	"strconv"
	"sync"

	"github.com/densemap/colmap_exporter/internal/aggregator"
	"github.com/densemap/colmap_exporter/internal/converters"
	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/densemap/colmap_exporter/internal/filters"
	"github.com/densemap/colmap_exporter/internal/io"
	"github.com/densemap/colmap_exporter/internal/ply"
	"github.com/densemap/colmap_exporter/internal/predread"
	"github.com/densemap/colmap_exporter/internal/recon"
	"github.com/densemap/colmap_exporter/tools"
)

type IExporter interface {
	RunExport(opts *recon.ExportOptions) error
}

type Exporter struct {
	fileFinder tools.FileFinder
	loader     predread.Loader
}

func NewExporter(fileFinder tools.FileFinder, loader predread.Loader) IExporter {
	return &Exporter{
		fileFinder: fileFinder,
		loader:     loader,
	}
}

// Starts the export process
func (e *Exporter) RunExport(opts *recon.ExportOptions) error {
	log.Println("Preparing list of images to process...")

	imageFiles := e.fileFinder.GetImageFilesToProcess(opts)
	if len(imageFiles) == 0 {
		return fmt.Errorf("no images found in %s", opts.Input)
	}
	tools.LogOutput("Found " + strconv.Itoa(len(imageFiles)) + " images")

	set, err := e.loadPredictions(imageFiles)
	if err != nil {
		return err
	}

	reconstruction := e.buildReconstruction(set, opts)

	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return err
	}

	tools.LogOutput("Writing " + opts.Format.String() + " reconstruction to " + opts.Output)
	if err := e.writeReconstruction(reconstruction, opts); err != nil {
		return err
	}

	if opts.WritePly {
		if err := e.writePlyPreview(reconstruction, opts); err != nil {
			return err
		}
	}

	tools.LogOutput("Export Completed")
	return nil
}

func (e *Exporter) loadPredictions(imageFiles []string) (*data.PredictionSet, error) {
	set := &data.PredictionSet{
		Images: make([]*data.ImagePrediction, 0, len(imageFiles)),
	}

	for i, imagePath := range imageFiles {
		tools.LogOutput("Loading predictions " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(imageFiles)))
		pred, err := e.loader.Load(imagePath)
		if err != nil {
			return nil, err
		}
		set.Images = append(set.Images, pred)
	}

	return set, nil
}

// Converts the camera parameters of every image and runs the aggregation,
// producing the complete in-memory reconstruction.
func (e *Exporter) buildReconstruction(set *data.PredictionSet, opts *recon.ExportOptions) *data.Reconstruction {
	reconstruction := &data.Reconstruction{
		Cameras: make([]data.Camera, 0, len(set.Images)),
		Images:  make([]data.ImagePose, 0, len(set.Images)),
	}

	tools.LogOutput("Converting camera parameters...")
	for i, img := range set.Images {
		fx, fy, cx, cy := converters.PinholeFromIntrinsic(img.Intrinsic)
		reconstruction.Cameras = append(reconstruction.Cameras, data.Camera{
			ID:     i + 1,
			Model:  data.PinholeModel,
			Width:  img.Width,
			Height: img.Height,
			Fx:     fx,
			Fy:     fy,
			Cx:     cx,
			Cy:     cy,
		})

		quaternion, translation := converters.PoseFromExtrinsic(img.Extrinsic)
		reconstruction.Images = append(reconstruction.Images, data.ImagePose{
			ID:          i + 1,
			Quaternion:  quaternion,
			Translation: translation,
			CameraID:    i + 1,
			Name:        img.Name,
		})
	}

	aggOpts := aggregator.Options{
		ThresholdPct: opts.ConfidenceThreshold,
		Stride:       opts.Stride,
		Scale:        opts.QuantizationScale,
		Mask: filters.Mask{
			Sky:             opts.MaskSky,
			BlackBackground: opts.MaskBlackBg,
			WhiteBackground: opts.MaskWhiteBg,
		},
	}
	if aggOpts.Stride < 1 {
		aggOpts.Stride = aggregator.DefaultOptions().Stride
	}
	if aggOpts.Scale <= 0 {
		aggOpts.Scale = aggregator.DefaultOptions().Scale
	}

	tools.LogOutput(fmt.Sprintf("Filtering points with confidence threshold %.1f%% and stride %d...",
		opts.ConfidenceThreshold, aggOpts.Stride))
	reconstruction.Points, reconstruction.ImageKeypoints = aggregator.AggregateParallel(set, aggOpts)

	tools.LogOutput(fmt.Sprintf("Generated %d 3D points with %d observations",
		len(reconstruction.Points), reconstruction.NumObservations()))

	return reconstruction
}

// Writes the three reconstruction sections, fanning the independent section
// jobs out to consumer goroutines.
func (e *Exporter) writeReconstruction(reconstruction *data.Reconstruction, opts *recon.ExportOptions) error {
	var writer io.ReconstructionWriter
	if opts.Format == recon.FormatBinary {
		writer = io.NewBinaryWriter(reconstruction)
	} else {
		writer = io.NewTextWriter(reconstruction)
	}

	numConsumers := runtime.NumCPU()
	if numConsumers > 3 {
		numConsumers = 3
	}

	workChannel := make(chan *io.WorkUnit, 3)

	// buffered so consumers never block on error submission
	errorChannel := make(chan error, 3)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	producer := io.NewStandardProducer(opts.Output, writer)
	go producer.Produce(workChannel, &waitGroup)

	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := io.NewStandardConsumer()
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	waitGroup.Wait()
	close(errorChannel)

	withErrors := false
	for err := range errorChannel {
		log.Println(err)
		withErrors = true
	}
	if withErrors {
		return errors.New("errors raised during write. Check console output for details")
	}

	return nil
}

func (e *Exporter) writePlyPreview(reconstruction *data.Reconstruction, opts *recon.ExportOptions) error {
	verts := make([]ply.Vertex, len(reconstruction.Points))
	for i, point := range reconstruction.Points {
		verts[i] = ply.Vertex{
			X: float32(point.Position.X()),
			Y: float32(point.Position.Y()),
			Z: float32(point.Position.Z()),
			R: point.Color[0],
			G: point.Color[1],
			B: point.Color[2],
		}
	}

	return ply.WritePlyFile(path.Join(opts.Output, io.PlyPreviewFile), verts)
}
