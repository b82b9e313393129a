// Package registry talks to the public pharmacy registry and turns its
// inconsistently shaped answers into a uniform list of records.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// SuccessCode is the result code of a successful registry answer.
const SuccessCode = "00"

// Envelope is the parsed wire-level registry response.
type Envelope struct {
	Header Header
	Body   Body
}

// Header carries the registry result code and message.
type Header struct {
	ResultCode string
	ResultMsg  string
}

// Body holds the item set and the raw page metadata.
type Body struct {
	Items      *Items // Items is nil when the registry omitted it
	NumOfRows  string // NumOfRows is the raw numeric text, empty when absent
	TotalCount string // TotalCount is the raw numeric text, empty when absent
}

// Items holds exactly one of Single or Many. Both are nil when the item field was absent.
type Items struct {
	Single *Item
	Many   []Item
}

// Item is one pharmacy as the registry sent it. Numbers are kept as their literal text.
type Item struct {
	RNum       Text `json:"rnum"`
	HPID       Text `json:"hpid"`
	DutyName   Text `json:"dutyName"`
	DutyAddr   Text `json:"dutyAddr"`
	DutyTel1   Text `json:"dutyTel1"`
	PostCdn1   Text `json:"postCdn1"`
	PostCdn2   Text `json:"postCdn2"`
	Wgs84Lon   Text `json:"wgs84Lon"`
	Wgs84Lat   Text `json:"wgs84Lat"`
	DutyTime1s Text `json:"dutyTime1s"`
	DutyTime1c Text `json:"dutyTime1c"`
	DutyTime2s Text `json:"dutyTime2s"`
	DutyTime2c Text `json:"dutyTime2c"`
	DutyTime3s Text `json:"dutyTime3s"`
	DutyTime3c Text `json:"dutyTime3c"`
	DutyTime4s Text `json:"dutyTime4s"`
	DutyTime4c Text `json:"dutyTime4c"`
	DutyTime5s Text `json:"dutyTime5s"`
	DutyTime5c Text `json:"dutyTime5c"`
	DutyTime6s Text `json:"dutyTime6s"`
	DutyTime6c Text `json:"dutyTime6c"`
	DutyTime7s Text `json:"dutyTime7s"`
	DutyTime7c Text `json:"dutyTime7c"`
	DutyTime8s Text `json:"dutyTime8s"`
	DutyTime8c Text `json:"dutyTime8c"`
	DutyEtc    Text `json:"dutyEtc"`
}

// Text is a JSON scalar kept as text. Strings are unquoted, numbers and booleans
// keep their literal form and null becomes the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	case trimmed[0] == '{', trimmed[0] == '[':
		return fmt.Errorf("expected scalar, got %s", string(trimmed[:1]))
	default:
		*t = Text(trimmed)
	}
	return nil
}

type wireEnvelope struct {
	Response *struct {
		Header *struct {
			ResultCode *Text `json:"resultCode"`
			ResultMsg  Text  `json:"resultMsg"`
		} `json:"header"`
		Body *struct {
			Items      json.RawMessage `json:"items"`
			NumOfRows  Text            `json:"numOfRows"`
			TotalCount Text            `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type wireItems struct {
	Item json.RawMessage `json:"item"`
}

// errMalformed wraps a parse problem as models.ErrMalformedResponse.
func errMalformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// ParseEnvelope strictly decodes a registry payload. It either returns a fully
// typed envelope or an error wrapping models.ErrMalformedResponse.
func ParseEnvelope(payload []byte) (*Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}

	if wire.Response == nil {
		return nil, errMalformed("missing response object")
	}
	if wire.Response.Header == nil {
		return nil, errMalformed("missing response header")
	}
	if wire.Response.Header.ResultCode == nil {
		return nil, errMalformed("missing result code")
	}

	env := &Envelope{
		Header: Header{
			ResultCode: string(*wire.Response.Header.ResultCode),
			ResultMsg:  string(wire.Response.Header.ResultMsg),
		},
	}

	if wire.Response.Body == nil {
		return env, nil
	}

	env.Body.NumOfRows = string(wire.Response.Body.NumOfRows)
	env.Body.TotalCount = string(wire.Response.Body.TotalCount)

	items, err := parseItems(wire.Response.Body.Items)
	if err != nil {
		return nil, err
	}
	env.Body.Items = items

	return env, nil
}

// parseItems decodes body.items. The registry sends an empty string, null or
// an empty array instead of an object when a region has no pharmacies.
func parseItems(raw json.RawMessage) (*Items, error) {
	raw = bytes.TrimSpace(raw)
	if isEmptyValue(raw) || isEmptyArray(raw) {
		return nil, nil
	}
	if raw[0] != '{' {
		return nil, errMalformed("items must be an object")
	}

	var wrapper wireItems
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: items: %w", models.ErrMalformedResponse, err)
	}

	item := bytes.TrimSpace(wrapper.Item)
	if isEmptyValue(item) {
		return &Items{}, nil
	}

	switch item[0] {
	case '{':
		var single Item
		if err := json.Unmarshal(item, &single); err != nil {
			return nil, fmt.Errorf("%w: item: %w", models.ErrMalformedResponse, err)
		}
		return &Items{Single: &single}, nil
	case '[':
		many := []Item{}
		if err := json.Unmarshal(item, &many); err != nil {
			return nil, fmt.Errorf("%w: item list: %w", models.ErrMalformedResponse, err)
		}
		return &Items{Many: many}, nil
	default:
		return nil, errMalformed("item must be an object or a list")
	}
}

func isEmptyValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

func isEmptyArray(raw json.RawMessage) bool {
	if len(raw) == 0 || raw[0] != '[' {
		return false
	}
	var list []json.RawMessage
	return json.Unmarshal(raw, &list) == nil && len(list) == 0
}

// Err returns the registry error carried by a non-success envelope, or nil.
func (e *Envelope) Err() error {
	if e.Header.ResultCode == SuccessCode {
		return nil
	}
	return models.NewRegistryError(e.Header.ResultCode, e.Header.ResultMsg)
}
