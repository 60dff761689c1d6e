package shipping

import (
	"encoding/json"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	displayLayout = "Monday, January 2"
)

// Date is a calendar day. It encodes to JSON as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// String renders the day the way delivery estimates are shown to shoppers.
func (d Date) String() string {
	return d.Format(displayLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
