package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// decodeImageData accepts raw base64 or a data URL and returns the bytes.
func decodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, errors.New("no image data")
	}
	parts := strings.SplitN(data, ",", 2)
	if len(parts) == 2 {
		data = parts[1]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

// sniffImageFormat verifies the payload decodes as JPEG or PNG.
func sniffImageFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", errors.New("unsupported image data")
	}
	if format != "jpeg" && format != "png" {
		return "", errors.New("only JPEG and PNG images are accepted")
	}
	return format, nil
}
