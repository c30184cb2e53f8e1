package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// A single colored vertex as stored in the PLY vertex element
type Vertex struct {
	X float32
	Y float32
	Z float32
	R uint8
	G uint8
	B uint8
}

// WritePlyFile writes the given vertices as a binary little-endian PLY file.
// The file is for preview in standard point cloud viewers and carries no
// track or camera information.
func WritePlyFile(filePath string, verts []Vertex) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "ply\n")
	fmt.Fprintf(w, "format binary_little_endian 1.0\n")
	fmt.Fprintf(w, "element vertex %d\n", len(verts))
	fmt.Fprintf(w, "property float x\n")
	fmt.Fprintf(w, "property float y\n")
	fmt.Fprintf(w, "property float z\n")
	fmt.Fprintf(w, "property uchar red\n")
	fmt.Fprintf(w, "property uchar green\n")
	fmt.Fprintf(w, "property uchar blue\n")
	fmt.Fprintf(w, "end_header\n")

	for _, v := range verts {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	return w.Flush()
}
