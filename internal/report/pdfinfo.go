package report

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// PageCount validates doc and returns its number of pages.
func PageCount(doc []byte) (n int, err error) {
	disableConfigDir.Do(api.DisableConfigDir)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf page count: %v", p)
		}
	}()
	n, err = api.PageCount(bytes.NewReader(doc), nil)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}
