package images

import (
	"crypto/md5"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum of a Mat's pixels.
//
// Two Mats with the same type, size and pixel data produce the same checksum,
// which lets tests assert that two rendering paths produce
// identical output.
//
// Arguments:
//   - mat: The Mat to compute the checksum for.
//
// Returns:
//   - A hex-encoded MD5 checksum string, or "empty" for an empty Mat.
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data := mat.ToBytes()
	hash := md5.New()
	hash.Write([]byte(fmt.Sprintf("%dx%d:%d:", mat.Cols(), mat.Rows(), mat.Type())))
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
