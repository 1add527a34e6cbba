package efactura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/models"
)

// Lister calls listaMesajeFactura.
type Lister struct {
	c *Caller
}

func NewLister(c *Caller) *Lister {
	return &Lister{c: c}
}

// List returns the messages of the last days for cif, in upstream order and
// without deduplication. A non-2xx answer other than the one-time 401 is an
// error; a body that is not JSON degrades to a single Raw message.
func (l *Lister) List(ctx context.Context, cif string, days int, tok *models.Token) ([]models.RawMessage, *models.Token, error) {
	u := l.c.endpoint("/listaMesajeFactura", url.Values{
		"cif":  {cif},
		"zile": {strconv.Itoa(days)},
	})

	resp, tok, err := l.c.send(ctx, tok, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, tok, fmt.Errorf("list messages for %s: %w", cif, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, tok, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, tok, statusError("listaMesajeFactura", resp.StatusCode, body)
	}
	l.c.log.Debug(ctx, "list messages response", "cif", cif, "body", string(body))

	res, err := normalizeList(body)
	if err != nil {
		l.c.log.Warn(ctx, "list response kept as raw text", "cif", cif, "error", err)
	}
	if res.notice != "" {
		l.c.log.Warn(ctx, res.notice, "cif", cif, "detail", res.detail)
	}
	return res.messages, tok, nil
}

type listing struct {
	messages []models.RawMessage
	notice   string
	detail   string
}

// normalizeList accepts a bare array, an object wrapping "mesaje", or an
// object carrying "eroare" (no messages in the window).
func normalizeList(body []byte) (listing, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return listing{}, nil
	}
	if !json.Valid(trimmed) {
		return listing{messages: []models.RawMessage{models.Raw(string(body))}},
			fmt.Errorf("%w: list body is not JSON", common.ErrMalformedResponse)
	}

	switch trimmed[0] {
	case '[':
		msgs, err := elements(trimmed)
		return listing{messages: msgs}, err
	case '{':
		rec, err := models.ParseRecord(trimmed)
		if err != nil {
			return listing{messages: []models.RawMessage{models.Raw(string(body))}},
				fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
		}
		if inner, ok := rec.Get("mesaje"); ok {
			return wrapped(inner)
		}
		if msg, ok := rec.String("eroare"); ok {
			return listing{notice: "upstream reported no messages", detail: msg}, nil
		}
		return listing{
			messages: []models.RawMessage{models.Structured(rec)},
			notice:   "list response is a single object, kept as one message",
		}, nil
	default:
		return listing{messages: []models.RawMessage{models.NormalizeMessage(trimmed)}},
			fmt.Errorf("%w: list body is a JSON scalar", common.ErrMalformedResponse)
	}
}

func wrapped(inner json.RawMessage) (listing, error) {
	v := bytes.TrimSpace(inner)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("null")):
		return listing{}, nil
	case v[0] == '[':
		msgs, err := elements(v)
		return listing{messages: msgs}, err
	default:
		return listing{messages: []models.RawMessage{models.NormalizeMessage(v)}}, nil
	}
}

func elements(arr []byte) ([]models.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, errors.Join(common.ErrMalformedResponse, err)
	}
	msgs := make([]models.RawMessage, 0, len(items))
	for _, it := range items {
		msgs = append(msgs, models.NormalizeMessage(it))
	}
	return msgs, nil
}
