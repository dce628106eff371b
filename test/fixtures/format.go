package fixtures

import (
	"encoding/json"
	"strconv"
)

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
