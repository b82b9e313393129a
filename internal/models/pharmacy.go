package models

// Pharmacy is a normalized registry record. Field values are kept exactly as the
// registry sent them; duty times are 4-digit strings such as "0900" or empty.
type Pharmacy struct {
	RNum      string `json:"rnum"`
	HPID      string `json:"hpid"`
	Name      string `json:"dutyName"`
	Address   string `json:"dutyAddr"`
	Phone     string `json:"dutyTel1"`
	PostCode1 string `json:"postCdn1"`
	PostCode2 string `json:"postCdn2"`
	Longitude string `json:"wgs84Lon"`
	Latitude  string `json:"wgs84Lat"`

	DutyTime1s string `json:"dutyTime1s,omitempty"`
	DutyTime1c string `json:"dutyTime1c,omitempty"`
	DutyTime2s string `json:"dutyTime2s,omitempty"`
	DutyTime2c string `json:"dutyTime2c,omitempty"`
	DutyTime3s string `json:"dutyTime3s,omitempty"`
	DutyTime3c string `json:"dutyTime3c,omitempty"`
	DutyTime4s string `json:"dutyTime4s,omitempty"`
	DutyTime4c string `json:"dutyTime4c,omitempty"`
	DutyTime5s string `json:"dutyTime5s,omitempty"`
	DutyTime5c string `json:"dutyTime5c,omitempty"`
	DutyTime6s string `json:"dutyTime6s,omitempty"`
	DutyTime6c string `json:"dutyTime6c,omitempty"`
	DutyTime7s string `json:"dutyTime7s,omitempty"`
	DutyTime7c string `json:"dutyTime7c,omitempty"`
	DutyTime8s string `json:"dutyTime8s,omitempty"`
	DutyTime8c string `json:"dutyTime8c,omitempty"`

	Note string `json:"dutyEtc,omitempty"` // Note is the registry's free-text remark.
}

// Hours is the opening and closing time of a pharmacy for one day.
// Empty values mean the registry has no data for that day.
type Hours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
