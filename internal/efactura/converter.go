package efactura

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/filex"
	"github.com/dmitrijs2005/efactura/internal/models"
)

const (
	DefaultStandard   = "FACT1"
	DefaultValidation = "DA"
)

// Converter calls transformare to render an invoice XML as PDF.
type Converter struct {
	c        *Caller
	standard string
	validate string
}

func NewConverter(c *Caller, standard, validate string) *Converter {
	if standard == "" {
		standard = DefaultStandard
	}
	if validate == "" {
		validate = DefaultValidation
	}
	return &Converter{c: c, standard: standard, validate: validate}
}

// PDFPath is where Convert writes the PDF for xmlPath.
func PDFPath(xmlPath string) string {
	return strings.TrimSuffix(xmlPath, filepath.Ext(xmlPath)) + ".pdf"
}

// Convert posts the XML file and writes the returned PDF next to it.
func (v *Converter) Convert(ctx context.Context, xmlPath string, tok *models.Token) (string, *models.Token, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return "", tok, fmt.Errorf("read %s: %w", xmlPath, err)
	}

	u := v.c.endpoint("/transformare/"+url.PathEscape(v.standard)+"/"+url.PathEscape(v.validate), nil)
	resp, tok, err := v.c.send(ctx, tok, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/plain")
		return req, nil
	})
	if err != nil {
		return "", tok, fmt.Errorf("convert %s: %w", filepath.Base(xmlPath), err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", tok, err
	}
	if !isSuccess(resp.StatusCode) {
		return "", tok, statusError("transformare", resp.StatusCode, body)
	}
	// Validation failures come back as 200 with a JSON or text explanation.
	if !bytes.HasPrefix(body, pdfMagic) {
		return "", tok, fmt.Errorf("%w: transformare did not return a PDF: %.300s", common.ErrMalformedResponse, body)
	}

	pdfPath := PDFPath(xmlPath)
	if err := filex.WriteFileAtomic(pdfPath, body, 0o644); err != nil {
		return "", tok, err
	}
	return pdfPath, tok, nil
}
