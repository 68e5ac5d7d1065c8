package clinical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PatientID is the backend's opaque patient key. The backend may send it as a
// JSON number or string; it is always carried as text.
type PatientID string

// UnmarshalJSON accepts a string or a number.
func (id *PatientID) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return fmt.Errorf("patient_id: %w", err)
	}
	*id = PatientID(s)
	return nil
}

// Patient is the identity and demographics of one patient.
type Patient struct {
	ID        PatientID `json:"patient_id"`
	MRN       string    `json:"mrn"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Race      string    `json:"race"`
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// AlertText is one alert string as produced by the backend's decision rules.
type AlertText = string

// Reading is a vital-sign value. The backend emits strings for some readings
// (blood pressure) and numbers for others (BMI); both decode to text and null
// decodes to the empty reading.
type Reading string

// UnmarshalJSON accepts a string, a number or null.
func (r *Reading) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return err
	}
	*r = Reading(s)
	return nil
}

// Present reports whether the reading carries a value.
func (r Reading) Present() bool { return strings.TrimSpace(string(r)) != "" }

func flexString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", string(data))
	}
	return n.String(), nil
}
