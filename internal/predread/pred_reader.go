package predread

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/densemap/colmap_exporter/tools"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Prediction dumps are little-endian files written by the model side, one per
// image, stored beside the image as <image base>.pred:
//
//	magic "VGGP" | uint32 version | uint32 height | uint32 width
//	9  x float64 row-major 3x3 intrinsic
//	12 x float64 row-major 3x4 camera-to-world extrinsic
//	height*width*3 float32 world points, row-major
//	height*width   float32 confidences, row-major
const (
	dumpMagic   = "VGGP"
	dumpVersion = 1

	PredFileExtension = ".pred"
)

// Loader resolves one image file into its full prediction bundle. The model
// itself stays a black box behind this seam; in-memory pipelines can inject
// their own implementation.
type Loader interface {
	Load(imagePath string) (*data.ImagePrediction, error)
}

type FileLoader struct{}

func NewFileLoader() Loader {
	return &FileLoader{}
}

// Load reads the prediction dump next to the given image and decodes the
// image itself for color sampling.
func (l *FileLoader) Load(imagePath string) (*data.ImagePrediction, error) {
	predPath := strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + PredFileExtension

	predFile := tools.OpenFileOrFail(predPath)
	defer predFile.Close()

	pred, err := decodeDump(bufio.NewReader(predFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", predPath, err)
	}

	imageFile := tools.OpenFileOrFail(imagePath)
	defer imageFile.Close()

	img, _, err := image.Decode(imageFile)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", imagePath, err)
	}

	pred.Name = filepath.Base(imagePath)
	pred.Image = img
	return pred, nil
}

func decodeDump(r io.Reader) (*data.ImagePrediction, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, err
	}
	if string(magic) != dumpMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}

	var version, height, width uint32
	if err := readLE(r, &version, &height, &width); err != nil {
		return nil, err
	}
	if version != dumpVersion {
		return nil, fmt.Errorf("unsupported dump version %d", version)
	}

	var intrinsic [9]float64
	var extrinsic [12]float64
	if err := readLE(r, &intrinsic, &extrinsic); err != nil {
		return nil, err
	}

	numPixels := int(height) * int(width)
	coords := make([]float32, numPixels*3)
	confidence := make([]float32, numPixels)
	if err := readLE(r, coords, confidence); err != nil {
		return nil, err
	}

	points := make([]mgl64.Vec3, numPixels)
	for i := range points {
		points[i] = mgl64.Vec3{
			float64(coords[i*3]),
			float64(coords[i*3+1]),
			float64(coords[i*3+2]),
		}
	}

	return &data.ImagePrediction{
		Width:      int(width),
		Height:     int(height),
		Points:     points,
		Confidence: confidence,
		Intrinsic:  mat3FromRow(intrinsic[:]),
		Extrinsic:  mat34FromRow(extrinsic[:]),
	}, nil
}

// WritePredictionFile encodes a prediction bundle into the dump format. Used
// by the model-side export tooling and by tests.
func WritePredictionFile(predPath string, pred *data.ImagePrediction) error {
	file, err := os.Create(predPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	if _, err := w.WriteString(dumpMagic); err != nil {
		return err
	}
	if err := writeLE(w, uint32(dumpVersion), uint32(pred.Height), uint32(pred.Width)); err != nil {
		return err
	}

	var intrinsic [9]float64
	var extrinsic [12]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			intrinsic[i*3+j] = pred.Intrinsic.At(i, j)
		}
		for j := 0; j < 4; j++ {
			extrinsic[i*4+j] = pred.Extrinsic.At(i, j)
		}
	}
	if err := writeLE(w, intrinsic, extrinsic); err != nil {
		return err
	}

	coords := make([]float32, len(pred.Points)*3)
	for i, p := range pred.Points {
		coords[i*3] = float32(p.X())
		coords[i*3+1] = float32(p.Y())
		coords[i*3+2] = float32(p.Z())
	}
	if err := writeLE(w, coords, pred.Confidence); err != nil {
		return err
	}

	return w.Flush()
}

func mat3FromRow(values []float64) *mat.Dense {
	return mat.NewDense(3, 3, append([]float64(nil), values...))
}

func mat34FromRow(values []float64) *mat.Dense {
	return mat.NewDense(3, 4, append([]float64(nil), values...))
}

func readLE(r io.Reader, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func writeLE(w io.Writer, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}
