package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// Page is a normalized registry answer: always a list of records plus the page metadata.
type Page struct {
	Pharmacies []models.Pharmacy
	NumOfRows  int
	TotalCount int
}

// Normalize converts a success envelope into a page of records.
//
// A non-success result code yields a *models.RegistryError. Absent items yield an
// empty list, a single item a one-element list, and a list of items is passed
// through in source order. numOfRows and totalCount default to 0 when absent or
// not numeric.
func Normalize(env *Envelope) (*Page, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", models.ErrMalformedResponse)
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	page := &Page{
		Pharmacies: []models.Pharmacy{},
		NumOfRows:  parseCount(env.Body.NumOfRows),
		TotalCount: parseCount(env.Body.TotalCount),
	}

	items := env.Body.Items
	switch {
	case items == nil:
	case items.Single != nil:
		page.Pharmacies = append(page.Pharmacies, items.Single.toPharmacy())
	default:
		for i := range items.Many {
			page.Pharmacies = append(page.Pharmacies, items.Many[i].toPharmacy())
		}
	}

	return page, nil
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func (it *Item) toPharmacy() models.Pharmacy {
	return models.Pharmacy{
		RNum:       string(it.RNum),
		HPID:       string(it.HPID),
		Name:       string(it.DutyName),
		Address:    string(it.DutyAddr),
		Phone:      string(it.DutyTel1),
		PostCode1:  string(it.PostCdn1),
		PostCode2:  string(it.PostCdn2),
		Longitude:  string(it.Wgs84Lon),
		Latitude:   string(it.Wgs84Lat),
		DutyTime1s: string(it.DutyTime1s),
		DutyTime1c: string(it.DutyTime1c),
		DutyTime2s: string(it.DutyTime2s),
		DutyTime2c: string(it.DutyTime2c),
		DutyTime3s: string(it.DutyTime3s),
		DutyTime3c: string(it.DutyTime3c),
		DutyTime4s: string(it.DutyTime4s),
		DutyTime4c: string(it.DutyTime4c),
		DutyTime5s: string(it.DutyTime5s),
		DutyTime5c: string(it.DutyTime5c),
		DutyTime6s: string(it.DutyTime6s),
		DutyTime6c: string(it.DutyTime6c),
		DutyTime7s: string(it.DutyTime7s),
		DutyTime7c: string(it.DutyTime7c),
		DutyTime8s: string(it.DutyTime8s),
		DutyTime8c: string(it.DutyTime8c),
		Note:       string(it.DutyEtc),
	}
}
