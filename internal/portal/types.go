// Package portal holds the typed API calls behind each portal page: the
// doctor dashboard and profile, the patient's appointments and the admin
// back office.
package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decimal holds a money amount as the API sends it, either a JSON string
// ("50.00") or a number.
type Decimal string

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*d = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Decimal(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid decimal %s: %w", string(data), err)
		}
		*d = Decimal(n.String())
	}
	return nil
}

// Float returns the amount as a float64, 0 when empty.
func (d Decimal) Float() (float64, error) {
	if d == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(d), 64)
}

// Person is the nested user or doctor summary carried by appointments.
type Person struct {
	ID        int    `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// Appointment is a booked consultation.
type Appointment struct {
	ID       int     `json:"id"`
	Doctor   *Person `json:"doctor,omitempty"`
	Client   *Person `json:"client,omitempty"`
	DateTime string  `json:"date_time"`
	Status   string  `json:"status"`
}

// Message is the acknowledgement envelope of admin mutations.
type Message struct {
	Message string `json:"message"`
}

// results is the paginated-list envelope used by the dashboard endpoints.
type results[T any] struct {
	Results []T `json:"results"`
}

// ValidationError wraps a failed form validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid input: %v", e.Err) }

func (e *ValidationError) Unwrap() error { return e.Err }

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
