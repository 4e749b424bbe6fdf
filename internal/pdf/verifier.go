package pdf

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const trailerWindow = 2048

var (
	headerMagic  = []byte("%PDF-")
	trailerMagic = []byte("%%EOF")
)

// Verifier confirms that a file is a structurally sound PDF.
//
// Three checks run in order and the first failure is reported:
//  1. the file starts with the "%PDF-" signature
//  2. "%%EOF" appears within the last 2048 bytes
//  3. pdfcpu parses and validates the whole document (relaxed mode)
//
// Example:
//
//	v := pdf.NewVerifier()
//	if err := v.Verify(path); errors.Is(err, pdf.ErrIntegrity) {
//	    // do not publish path
//	}
type Verifier struct {
	conf *model.Configuration
}

// NewVerifier creates a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{conf: newConfiguration()}
}

// Verify checks the document at path. Failures are returned as
// *IntegrityError.
func (v *Verifier) Verify(path string) error {
	if err := checkSignatures(path); err != nil {
		return err
	}

	if err := api.ValidateFile(path, v.conf); err != nil {
		return &IntegrityError{Check: CheckStructure, Path: path, Err: err}
	}
	return nil
}

func checkSignatures(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &IntegrityError{Check: CheckHeader, Path: path, Err: err}
	}
	defer f.Close()

	head := make([]byte, len(headerMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, headerMagic) {
		if err == nil {
			err = errors.New("missing %PDF- signature")
		}
		return &IntegrityError{Check: CheckHeader, Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		return &IntegrityError{Check: CheckTrailer, Path: path, Err: err}
	}

	offset := info.Size() - trailerWindow
	if offset < 0 {
		offset = 0
	}
	tail := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(tail, offset); err != nil && !errors.Is(err, io.EOF) {
		return &IntegrityError{Check: CheckTrailer, Path: path, Err: err}
	}
	if !bytes.Contains(tail, trailerMagic) {
		return &IntegrityError{Check: CheckTrailer, Path: path, Err: errors.New("missing %%EOF marker")}
	}
	return nil
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
