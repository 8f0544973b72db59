package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"

	"github.com/rwcarlsen/goexif/exif"
)

var exifHeader = []byte("Exif\x00\x00")

// maxAPP1Payload is the largest EXIF block that fits in one JPEG segment.
const maxAPP1Payload = 0xFFFF - 2 - 6

// extractEXIF returns the raw TIFF-structured EXIF block embedded in a JPEG,
// PNG or WebP file, or nil when there is none. AVIF metadata lives in ISOBMFF
// boxes and is not carried over.
func extractEXIF(data []byte) []byte {
	var raw []byte
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		raw = jpegEXIF(data)
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		raw = pngEXIF(data)
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		raw = webpEXIF(data)
	}
	return bytes.TrimPrefix(raw, exifHeader)
}

func jpegEXIF(data []byte) []byte {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		if marker == 0xDA || marker == 0xD9 {
			return nil
		}
		size := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if size < 2 || i+2+size > len(data) {
			return nil
		}
		payload := data[i+4 : i+2+size]
		if marker == 0xE1 && bytes.HasPrefix(payload, exifHeader) {
			return payload
		}
		i += 2 + size
	}
	return nil
}

func pngEXIF(data []byte) []byte {
	i := 8
	for i+8 <= len(data) {
		size := int(binary.BigEndian.Uint32(data[i : i+4]))
		kind := string(data[i+4 : i+8])
		if size < 0 || i+12+size > len(data) {
			return nil
		}
		if kind == "eXIf" {
			return data[i+8 : i+8+size]
		}
		if kind == "IEND" {
			return nil
		}
		i += 12 + size
	}
	return nil
}

func webpEXIF(data []byte) []byte {
	i := 12
	for i+8 <= len(data) {
		kind := string(data[i : i+4])
		size := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		if size < 0 || i+8+size > len(data) {
			return nil
		}
		if kind == "EXIF" {
			return data[i+8 : i+8+size]
		}
		i += 8 + size + size%2
	}
	return nil
}

// validEXIF parses raw with goexif so that garbage is never copied into the
// converted file.
func validEXIF(path string, raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		slog.Warn("Dropping unreadable EXIF block", "path", path, "err", err)
		return false
	}
	if tag, err := x.Get(exif.Model); err == nil {
		slog.Debug("Carrying EXIF over", "path", path, "camera", tag.String())
	}
	return true
}

var errEXIFTooLarge = errors.New("exif block does not fit in a single APP1 segment")

// insertEXIF places raw as an APP1 segment right after the SOI marker of an
// encoded JPEG.
func insertEXIF(jpegData, raw []byte) ([]byte, error) {
	if len(raw) > maxAPP1Payload {
		return nil, errEXIFTooLarge
	}
	if !bytes.HasPrefix(jpegData, []byte{0xFF, 0xD8}) {
		return nil, errors.New("encoded data is not a JPEG stream")
	}

	segment := make([]byte, 4, 4+len(exifHeader)+len(raw))
	segment[0], segment[1] = 0xFF, 0xE1
	binary.BigEndian.PutUint16(segment[2:], uint16(2+len(exifHeader)+len(raw)))
	segment = append(segment, exifHeader...)
	segment = append(segment, raw...)

	out := make([]byte, 0, len(jpegData)+len(segment))
	out = append(out, jpegData[:2]...)
	out = append(out, segment...)
	out = append(out, jpegData[2:]...)
	return out, nil
}
