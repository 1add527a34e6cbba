package efactura

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/dmitrijs2005/efactura/internal/filex"
	"github.com/dmitrijs2005/efactura/internal/models"
)

// Result is the outcome of one Fetch.
type Result int

const (
	ResultSaved Result = iota
	ResultNoID
	ResultPresent
	ResultNotRetrievable
	ResultBroken
)

func (r Result) String() string {
	switch r {
	case ResultSaved:
		return "saved"
	case ResultNoID:
		return "no id"
	case ResultPresent:
		return "already present"
	case ResultNotRetrievable:
		return "not retrievable"
	case ResultBroken:
		return "broken archive"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

var (
	zipMagic = []byte("PK\x03\x04")
	pdfMagic = []byte("%PDF-")
	utf8BOM  = []byte("\xef\xbb\xbf")
)

// Downloader calls descarcare and materializes the payload in a directory.
type Downloader struct {
	c *Caller
}

func NewDownloader(c *Caller) *Downloader {
	return &Downloader{c: c}
}

// Fetch downloads message id into dir. A directory that already holds any
// entry is left alone without a network call. 400 and 404 mean the listed
// message cannot be downloaded; they are reported as ResultNotRetrievable and
// not retried.
func (d *Downloader) Fetch(ctx context.Context, id, dir string, tok *models.Token) (Result, *models.Token, error) {
	if id == "" {
		d.c.log.Warn(ctx, "message without id skipped", "dir", dir)
		return ResultNoID, tok, nil
	}

	occupied, err := filex.IsOccupied(dir)
	if err != nil {
		return 0, tok, err
	}
	if occupied {
		d.c.log.Debug(ctx, "target already present", "id", id, "dir", dir)
		return ResultPresent, tok, nil
	}

	u := d.c.endpoint("/descarcare", url.Values{"id": {id}})
	resp, tok, err := d.c.send(ctx, tok, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return 0, tok, fmt.Errorf("download %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return 0, tok, err
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		d.c.log.Warn(ctx, "message rejected by upstream, skipping", "id", id, "status", resp.StatusCode)
		return ResultNotRetrievable, tok, nil
	case !isSuccess(resp.StatusCode):
		return 0, tok, statusError("descarcare", resp.StatusCode, body)
	}

	res, err := Materialize(body, id, dir)
	if err != nil {
		return 0, tok, err
	}
	if res == ResultBroken {
		d.c.log.Warn(ctx, "archive could not be extracted, raw bytes kept", "id", id, "dir", dir)
	}
	return res, tok, nil
}

// Materialize writes a downloaded payload into dir according to its leading
// bytes: a ZIP archive is extracted (or kept as <id>.zip.broken when that
// fails), a PDF becomes <id>.pdf, markup <id>.xml and anything else <id>.txt.
func Materialize(blob []byte, id, dir string) (Result, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return 0, err
	}
	name := filex.SafeName(id)

	switch {
	case bytes.HasPrefix(blob, zipMagic):
		if _, err := filex.Unzip(blob, dir); err != nil {
			if werr := filex.WriteFileAtomic(filepath.Join(dir, name+".zip.broken"), blob, 0o644); werr != nil {
				return 0, werr
			}
			return ResultBroken, nil
		}
		return ResultSaved, nil
	case bytes.HasPrefix(blob, pdfMagic):
		return ResultSaved, filex.WriteFileAtomic(filepath.Join(dir, name+".pdf"), blob, 0o644)
	case isMarkup(blob):
		return ResultSaved, filex.WriteFileAtomic(filepath.Join(dir, name+".xml"), blob, 0o644)
	default:
		return ResultSaved, filex.WriteFileAtomic(filepath.Join(dir, name+".txt"), blob, 0o644)
	}
}

func isMarkup(blob []byte) bool {
	b := bytes.TrimPrefix(blob, utf8BOM)
	b = bytes.TrimLeft(b, " \t\r\n\v\f")
	return len(b) > 0 && b[0] == '<'
}
