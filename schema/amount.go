package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strconv"
)

var numericAmountPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

var errAmountNotNumeric = errors.New("must be a numeric string")

// Amount is a decimal the API sends either as a JSON number or as a numeric
// string. It is kept as text so no precision is lost.
type Amount string

func NewAmount(value float64) Amount {
	return Amount(strconv.FormatFloat(value, 'f', -1, 64))
}

func (a Amount) String() string {
	return string(a)
}

func (a Amount) Float64() (float64, error) {
	return strconv.ParseFloat(string(a), 64)
}

func (a Amount) Validate() error {
	if a == "" || numericAmountPattern.MatchString(string(a)) {
		return nil
	}
	return errAmountNotNumeric
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a == "" {
		return []byte("null"), nil
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return []byte(a), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = Amount(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(Amount(""))}
	}
	*a = Amount(number.String())
	return nil
}
