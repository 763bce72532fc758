package contractdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
)

/*
 * Attention: tdewolff/canvas uses mm as the unit of measurement. Pages are A4.
 */

const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 20.0

	contentWidth = pageWidth - 2*margin

	titleFontSize = 16.0
	metaFontSize  = 9.0
	bodyFontSize  = 11.0

	blockSpacing = 6.0

	// Signature images are scaled to this width, keeping aspect ratio.
	signatureWidth = 50.0
)

// Signatory describes one party printed in the signature section of the
// rendered document.
type Signatory struct {
	Name     string
	Role     string
	SignedAt string
	// Optional PNG image payload of the drawn signature.
	SignaturePNG []byte
}

// Document is the renderer's input. It deliberately knows nothing about the
// database models; callers map their contract into this shape.
type Document struct {
	ID          string
	Title       string
	Type        string
	Blocks      []string
	Signatories []Signatory
	// VerifyURL is encoded into a QR on the last page when EmbedQR is set.
	VerifyURL string
	EmbedQR   bool
}

type Renderer struct {
	cfg        *Config
	fontFamily *canvas.FontFamily
}

func NewRenderer(cfg *Config) (*Renderer, error) {
	fontFamily := canvas.NewFontFamily("document")
	if err := fontFamily.LoadSystemFont("serif", canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("failed to load system font: %w", err)
	}

	return &Renderer{cfg: cfg, fontFamily: fontFamily}, nil
}

type page struct {
	c   *canvas.Canvas
	ctx *canvas.Context
	// y cursor, measured from the bottom of the page; starts at the top
	// margin and walks down as content is laid out.
	y float64
}

func (r *Renderer) newPage() *page {
	c := canvas.New(pageWidth, pageHeight)
	ctx := canvas.NewContext(c)
	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(pageWidth, pageHeight))
	ctx.SetFillColor(canvas.Black)

	return &page{c: c, ctx: ctx, y: pageHeight - margin}
}

// ensureRoom starts a new page when the next element of the given height
// would run into the bottom margin.
func ensureRoom(pages []*page, p *page, height float64, r *Renderer) ([]*page, *page) {
	if p.y-height < margin {
		p = r.newPage()
		pages = append(pages, p)
	}
	return pages, p
}

func (r *Renderer) drawTextBlock(p *page, face *canvas.FontFace, text string) float64 {
	txt := canvas.NewTextBox(face, text, contentWidth, 0.0, canvas.Left, canvas.Top, 0.0, 0.0)
	p.ctx.DrawText(margin, p.y, txt)
	return txt.Bounds().H()
}

func (r *Renderer) measureTextBlock(face *canvas.FontFace, text string) float64 {
	txt := canvas.NewTextBox(face, text, contentWidth, 0.0, canvas.Left, canvas.Top, 0.0, 0.0)
	return txt.Bounds().H()
}

// Render lays the document out on A4 pages and returns the finished PDF.
// Rendering goes through temp files: one PDF per page, merged, optimized,
// and finally stamped with the verification QR.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	tmpDir, err := os.MkdirTemp(r.cfg.TmpDir, "render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create render tmp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	titleFace := r.fontFamily.Face(titleFontSize, canvas.Black, canvas.FontRegular, canvas.FontNormal)
	metaFace := r.fontFamily.Face(metaFontSize, canvas.Gray, canvas.FontRegular, canvas.FontNormal)
	bodyFace := r.fontFamily.Face(bodyFontSize, canvas.Black, canvas.FontRegular, canvas.FontNormal)

	p := r.newPage()
	pages := []*page{p}

	h := r.drawTextBlock(p, titleFace, NormalizeText(doc.Title))
	p.y -= h + 2.0

	if doc.Type != "" {
		h = r.drawTextBlock(p, metaFace, NormalizeText(doc.Type))
		p.y -= h
	}
	p.y -= blockSpacing

	for _, block := range doc.Blocks {
		text := NormalizeText(block)
		if text == "" {
			continue
		}

		height := r.measureTextBlock(bodyFace, text)
		pages, p = ensureRoom(pages, p, height, r)
		r.drawTextBlock(p, bodyFace, text)
		p.y -= height + blockSpacing
	}

	// Signature section
	if len(doc.Signatories) > 0 {
		pages, p = ensureRoom(pages, p, 30.0, r)
		h = r.drawTextBlock(p, bodyFace, "Signatures")
		p.y -= h + blockSpacing

		for _, signatory := range doc.Signatories {
			imageHeight := 0.0
			decoded := decodeSignaturePNG(signatory.SignaturePNG)
			if decoded != nil {
				bounds := decoded.Bounds()
				imageHeight = signatureWidth * float64(bounds.Dy()) / float64(bounds.Dx())
			}

			caption := SignatureCaption(signatory.Name, signatory.Role, signatory.SignedAt)
			captionHeight := r.measureTextBlock(metaFace, caption)
			pages, p = ensureRoom(pages, p, imageHeight+captionHeight+blockSpacing, r)

			if decoded != nil {
				bounds := decoded.Bounds()
				resolution := canvas.DPMM(float64(bounds.Dx()) / signatureWidth)
				p.ctx.DrawImage(margin, p.y-imageHeight, decoded, resolution)
				p.y -= imageHeight + 1.0
			}

			r.drawTextBlock(p, metaFace, caption)
			p.y -= captionHeight + blockSpacing
		}
	}

	pageFiles := make([]string, 0, len(pages))
	for i, pg := range pages {
		pageFile := filepath.Join(tmpDir, fmt.Sprintf("page_%d.pdf", i+1))
		if err := renderers.Write(pageFile, pg.c); err != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", i+1, err)
		}
		pageFiles = append(pageFiles, pageFile)
	}

	merged := filepath.Join(tmpDir, "merged.pdf")
	if len(pageFiles) == 1 {
		merged = pageFiles[0]
	} else if err := MergePdfPages(pageFiles, merged); err != nil {
		return nil, err
	}

	optimized := filepath.Join(tmpDir, "optimized.pdf")
	if err := OptimizePdf(merged, optimized); err != nil {
		return nil, err
	}

	finalFile := optimized
	if doc.EmbedQR && doc.VerifyURL != "" {
		qrFile := filepath.Join(tmpDir, "qr.png")
		// size 50 is enough for pdf embedding
		if err := GenerateQRCode(doc.VerifyURL, qrFile, 50); err != nil {
			return nil, err
		}

		stamped := filepath.Join(tmpDir, "stamped.pdf")
		lastPage := []string{fmt.Sprintf("%d", len(pages))}
		if err := EmbedQRCodeToPdf(optimized, stamped, qrFile, lastPage); err != nil {
			return nil, err
		}
		finalFile = stamped
	}

	return os.ReadFile(finalFile)
}

// decodeSignaturePNG returns nil for empty or malformed payloads so a bad
// signature image degrades to a caption-only entry instead of failing the
// whole render.
func decodeSignaturePNG(data []byte) image.Image {
	if len(data) == 0 {
		return nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}
