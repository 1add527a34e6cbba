package retrieval

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/filex"
	"github.com/dmitrijs2005/efactura/internal/models"
)

var (
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	compactDate = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{4})?$`)
	dottedDate  = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})`)
)

// NormalizeDate turns an upstream creation date into YYYY-MM-DD. ISO
// timestamps, compact yyyyMMdd[HHmm] and dd.MM.yyyy are understood; anything
// else (including an empty value) yields the UTC date of now.
func NormalizeDate(raw string, now time.Time) string {
	var y, m, d string
	switch {
	case isoDate.MatchString(raw):
		p := isoDate.FindStringSubmatch(raw)
		y, m, d = p[1], p[2], p[3]
	case compactDate.MatchString(raw):
		p := compactDate.FindStringSubmatch(raw)
		y, m, d = p[1], p[2], p[3]
	case dottedDate.MatchString(raw):
		p := dottedDate.FindStringSubmatch(raw)
		y, m, d = p[3], p[2], p[1]
	}

	date := y + "-" + m + "-" + d
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return now.UTC().Format(time.DateOnly)
	}
	return date
}

// Target is the directory a message is materialized into:
// {root}/{year}/{cif}/{Primite|Trimise|Erori}/{MM}/{YYYY-MM-DD}_{id|NA}.
func Target(root, cif string, msg models.RawMessage, id string, now time.Time) string {
	date := NormalizeDate(msg.Field("data_creare"), now)

	year, month := common.UnknownIDPlaceholder, common.UnknownIDPlaceholder
	if len(date) >= 4 {
		year = date[:4]
	}
	if len(date) >= 7 {
		month = date[5:7]
	}

	name := common.UnknownIDPlaceholder
	if id != "" {
		name = filex.SafeName(id)
	}

	folder := models.ParseMessageType(msg.Field("tip")).Folder()
	return filepath.Join(root, year, filex.SafeName(cif), folder, month, date+"_"+name)
}
