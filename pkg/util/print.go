package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/TylerBrock/colorjson"
)

func Recast(from, to interface{}) error {
	switch v := from.(type) {
	case []byte:
		return json.Unmarshal(v, to)
	case string:
		return json.Unmarshal([]byte(v), to)
	default:
		buf, err := json.Marshal(from)
		if err != nil {
			return err
		}

		return json.Unmarshal(buf, to)
	}
}

// PrintJSON writes obj to stdout as indented, colored JSON.
func PrintJSON(obj interface{}) {
	_ = FprintJSON(os.Stdout, obj)
}

// FprintJSON accepts objects and arrays alike; the inverter list and the
// statistics series are printed as arrays.
func FprintJSON(w io.Writer, obj interface{}) error {
	var data interface{}
	if err := Recast(obj, &data); err != nil {
		return err
	}

	f := colorjson.NewFormatter()
	f.Indent = 4
	s, err := f.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(s))
	return err
}
