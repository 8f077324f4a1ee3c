package upload

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ProbeDuration reads the media duration from a local file's container
// headers. Best effort: any parse failure or unsupported format yields
// nil, never an error.
func ProbeDuration(path string) *float64 {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return probeWAV(f)
	case ".mp4", ".m4a", ".m4v", ".mov":
		return probeMP4(f)
	}
	return nil
}

// probeWAV walks RIFF chunks for fmt (byte rate) and data (payload size).
func probeWAV(r io.ReadSeeker) *float64 {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil
	}

	var byteRate uint32
	var dataSize uint32
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			break
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var fmtBody [16]byte
			if size < 16 {
				return nil
			}
			if _, err := io.ReadFull(r, fmtBody[:]); err != nil {
				return nil
			}
			byteRate = binary.LittleEndian.Uint32(fmtBody[8:12])
			if size > 16 {
				if _, err := r.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return nil
				}
			}
		case "data":
			dataSize = size
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil
			}
		}

		if byteRate > 0 && dataSize > 0 {
			d := float64(dataSize) / float64(byteRate)
			return &d
		}
		// Chunks are word-aligned.
		if id == "data" {
			if _, err := r.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return nil
			}
		} else if size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return nil
			}
		}
	}
	return nil
}

// probeMP4 walks top-level boxes to moov/mvhd for timescale and duration.
func probeMP4(r io.ReadSeeker) *float64 {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil
	}
	return findMvhd(r, 0, end)
}

func findMvhd(r io.ReadSeeker, start, end int64) *float64 {
	pos := start
	for pos+8 <= end {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil
		}
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil
		}
		size := int64(binary.BigEndian.Uint32(header[0:4]))
		boxType := string(header[4:8])
		headerLen := int64(8)

		if size == 1 {
			// 64-bit box length follows the type.
			var big [8]byte
			if _, err := io.ReadFull(r, big[:]); err != nil {
				return nil
			}
			size = int64(binary.BigEndian.Uint64(big[:]))
			headerLen = 16
		}
		if size < headerLen || pos+size > end {
			return nil
		}

		switch boxType {
		case "moov":
			if d := findMvhd(r, pos+headerLen, pos+size); d != nil {
				return d
			}
		case "mvhd":
			return readMvhd(r)
		}
		pos += size
	}
	return nil
}

func readMvhd(r io.Reader) *float64 {
	var versionFlags [4]byte
	if _, err := io.ReadFull(r, versionFlags[:]); err != nil {
		return nil
	}

	var timescale uint32
	var duration uint64
	if versionFlags[0] == 1 {
		// 64-bit creation/modification times.
		var body [28]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil
		}
		timescale = binary.BigEndian.Uint32(body[16:20])
		duration = binary.BigEndian.Uint64(body[20:28])
	} else {
		var body [16]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			return nil
		}
		timescale = binary.BigEndian.Uint32(body[8:12])
		duration = uint64(binary.BigEndian.Uint32(body[12:16]))
	}

	if timescale == 0 {
		return nil
	}
	d := float64(duration) / float64(timescale)
	return &d
}
