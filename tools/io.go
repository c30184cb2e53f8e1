package tools

import (
	"os"

	"github.com/golang/glog"
)

// OpenFileOrFail opens the given file for reading and aborts the process when
// it is missing. Used for inputs whose absence makes the whole run pointless.
func OpenFileOrFail(filePath string) *os.File {
	file, err := os.Open(filePath)
	if err != nil {
		glog.Fatal(err)
	}

	return file
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}
