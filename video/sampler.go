// Package video extracts still frames from verification videos.
package video

import (
	"image"

	"gocv.io/x/gocv"
)

// FirstFrame opens the video at path and returns its first decodable frame.
// The capture handle is released on every path, so repeated calls do not
// leak decoder or file handles. ok is false when no frame could be decoded.
func FirstFrame(path string) (frame image.Image, ok bool) {
	defer func() {
		if recover() != nil {
			frame, ok = nil, false
		}
	}()

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, false
	}
	defer capture.Close()

	mat := gocv.NewMat()
	defer mat.Close()
	if !capture.Read(&mat) || mat.Empty() {
		return nil, false
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, false
	}
	return img, true
}
