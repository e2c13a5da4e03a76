package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// openZip opens content as a zip archive; kind names the format in errors.
func openZip(content []byte, kind string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", kind, err)
	}
	return zr, nil
}

// readZipFile returns the bytes of one archive member.
func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// readZipEntry returns the member called name, or found=false.
func readZipEntry(zr *zip.Reader, name string) (data []byte, found bool, err error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		data, err := readZipFile(f)
		return data, true, err
	}
	return nil, false, nil
}
