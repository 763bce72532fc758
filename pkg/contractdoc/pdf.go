package contractdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Optimize also validates the file; invalid PDFs fail here.
func OptimizePdf(inFile, outFile string) error {
	if err := api.OptimizeFile(inFile, outFile, nil); err != nil {
		return fmt.Errorf("failed to optimize PDF: %w", err)
	}
	return nil
}

// Merge single-page PDFs into one document, in the given order.
func MergePdfPages(inFiles []string, outFile string) error {
	if err := api.MergeCreateFile(inFiles, outFile, false, nil); err != nil {
		return fmt.Errorf("failed to merge PDF pages: %w", err)
	}
	return nil
}

// Apply qr code to the bottom right corner of a PDF file,
// if array of selected pages is provided, will apply to those pages
// otherwise apply to all pages
func EmbedQRCodeToPdf(inFile, outFile, qrCodePath string, selectedPages []string) error {
	description := "pos: br, off: 0 0, scale: 1 abs, rotation: 0"
	err := api.AddImageWatermarksFile(inFile, outFile, selectedPages, true, qrCodePath, description, nil)
	if err != nil {
		return fmt.Errorf("failed to embed QR code in PDF: %w", err)
	}
	return nil
}
