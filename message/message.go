// Copyright 2025 ntlekhugov

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package message initializes struct-based configurations from generic JSON
// values, honoring required fields, defaults and value choices declared as
// struct tags.
package message

import (
	"encoding/json"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Message is the primitive building block of a JSON-based configuration. It
// typically represents a JSON object, and is implemented by a struct pointer
// holding the expected fields, e.g.:
//
//	type Schema struct {
//	  TradeDate string   `json:"trade_date" default:"TRADEDATE"`
//	  Board     string   `json:"board" choices:"SNDX,RTSI"`
//	  Codes     []string `json:"codes" required:"true"`
//	  Ignored   int      `json:"-"`
//	  Columns   *Schema  // recursively parsed Message
//	}
//
//	func (s *Schema) InitMessage(js any) error {
//	  return message.Init(s, js)
//	}
type Message interface {
	// InitMessage converts a generic JSON value read by the encoding/json
	// package into the specific message: checks required fields, fills in
	// defaults of the missing optional fields, and rejects unrecognized fields.
	InitMessage(js any) error
}

// messageType is the reflected Message interface type, obtained through a
// pointer since an interface type itself has no runtime value.
var messageType = reflect.TypeOf((*Message)(nil)).Elem()

// initNested instantiates a Message-implementing pointer type from a JSON
// value by calling its InitMessage method.
func initNested(jv any, t reflect.Type) (reflect.Value, error) {
	var zero reflect.Value
	if !t.Implements(messageType) {
		return zero, errors.Reason("type %s must implement Message", t.Name())
	}
	if t.Kind() != reflect.Ptr {
		return zero, errors.Reason(
			"type %s implements Message but is not a pointer", t.Name())
	}
	ptr := reflect.New(t.Elem())
	err := ptr.MethodByName("InitMessage").Call(
		[]reflect.Value{reflect.ValueOf(jv)})[0].Interface()
	if err != nil {
		return zero, errors.Annotate(err.(error), "%s.InitMessage() failed", t.Name())
	}
	return ptr, nil
}

// convert recursively converts a raw JSON value to the target type: basic
// types, slices, pointers, and Message implementations. A nil jv yields the
// zero value, except for value-typed Messages which are initialized with
// their defaults.
func convert(jv any, t reflect.Type) (reflect.Value, error) {
	var zero reflect.Value
	if t.Implements(messageType) {
		if jv == nil {
			return reflect.Zero(t), nil
		}
		ptr, err := initNested(jv, t)
		if err != nil {
			return zero, errors.Annotate(err, "failed to parse Message %s", t.Name())
		}
		return ptr, nil
	}
	if ptrTp := reflect.PtrTo(t); ptrTp.Implements(messageType) {
		if jv == nil {
			jv = make(map[string]any) // force default values for t
		}
		ptr, err := initNested(jv, ptrTp)
		if err != nil {
			return zero, errors.Annotate(err, "failed to parse Message %s", t.Name())
		}
		return reflect.Indirect(ptr), nil
	}
	if jv == nil {
		return reflect.Zero(t), nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		v, err := convert(jv, t.Elem())
		if err != nil {
			return zero, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil

	case reflect.Bool:
		b, ok := jv.(bool)
		if !ok {
			return zero, errors.Reason("not a bool type: %v", jv)
		}
		return reflect.ValueOf(b), nil

	case reflect.Int:
		f, ok := jv.(float64)
		if !ok {
			return zero, errors.Reason("not a numeric type: %v", jv)
		}
		return reflect.ValueOf(int(f)), nil

	case reflect.Float64:
		f, ok := jv.(float64)
		if !ok {
			return zero, errors.Reason("not a numeric type: %v", jv)
		}
		return reflect.ValueOf(f), nil

	case reflect.String:
		s, ok := jv.(string)
		if !ok {
			return zero, errors.Reason("not a string type: %v", jv)
		}
		return reflect.ValueOf(s), nil

	case reflect.Slice:
		vs, ok := jv.([]any)
		if !ok {
			return zero, errors.Reason("not a slice type: %v", jv)
		}
		res := reflect.MakeSlice(t, len(vs), len(vs))
		for i, v := range vs {
			el, err := convert(v, t.Elem())
			if err != nil {
				return zero, err
			}
			res.Index(i).Set(el)
		}
		return res, nil

	default:
		return zero, errors.Reason("unsupported type: %s", t.Name())
	}
}

// parseDefault converts the string value of a `default:` tag to the type t.
func parseDefault(s string, t reflect.Type) (reflect.Value, error) {
	var zero reflect.Value
	switch t.Kind() {
	case reflect.Ptr:
		v, err := parseDefault(s, t.Elem())
		if err != nil {
			return zero, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return zero, errors.Annotate(err, "invalid bool value: %s", s)
		}
		return reflect.ValueOf(v), nil
	case reflect.Int:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, errors.Annotate(err, "invalid int value: %s", s)
		}
		return reflect.ValueOf(int(v)), nil
	case reflect.Float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, errors.Annotate(err, "invalid float64 value: %s", s)
		}
		return reflect.ValueOf(v), nil
	case reflect.String:
		return reflect.ValueOf(s), nil
	}
	return zero, errors.Reason("type %s is not supported", t.Name())
}

// setChecked assigns v to the struct field value fv after validating it
// against the field's `choices:` tag, if any.
func setChecked(f reflect.StructField, fv reflect.Value, v reflect.Value) error {
	if choices, ok := f.Tag.Lookup("choices"); ok {
		if f.Type.Kind() != reflect.String {
			return errors.Reason(
				"choices tag applied to a non-string field: %s", f.Name)
		}
		s, ok := v.Interface().(string)
		if !ok {
			return errors.Reason(
				"value for a string field %s is not a string", f.Name)
		}
		if !StringIn(s, strings.Split(choices, ",")...) {
			return errors.Reason(
				"value for %s is not in its choice list: '%s'", f.Name, s)
		}
	}
	fv.Set(v)
	return nil
}

// jsonFieldName extracts the JSON key of a struct field from its `json:` tag,
// defaulting to the field name. The second result is false for fields tagged
// `json:"-"` and for unexported fields.
func jsonFieldName(f reflect.StructField) (string, bool) {
	firstChar, _ := utf8.DecodeRuneInString(f.Name)
	if !unicode.IsUpper(firstChar) {
		return "", false
	}
	name := f.Name
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] == "-" {
			return "", false
		}
		if parts[0] != "" {
			name = parts[0]
		}
	}
	return name, true
}

// Init is the generic method to be used by most InitMessage implementations.
// It expects m to be a struct pointer, and js to be a non-nil
// map[string]any as produced by encoding/json.
//
// Recognized struct tags:
// `json:"field_name" required:"true" default:"value" choices:"one,two,three"`
//
// The `json:` tag is compatible with the encoding/json package: only exported
// fields are part of a message, a missing tag is equivalent to
// `json:"FieldName"`, and qualifiers like `json:",omitempty"` are accepted but
// ignored. The `choices:` tag is supported only for string fields. Fields
// present in js but not in the struct are an error.
func Init(m Message, js any) error {
	rt := reflect.TypeOf(m)
	if !(rt.Kind() == reflect.Ptr && rt.Elem().Kind() == reflect.Struct) {
		return errors.Reason(
			"expected Message instance to be a struct pointer, but got %s",
			rt.Name())
	}
	if js == nil {
		return errors.Reason("JSON object is nil")
	}
	jsMap, ok := js.(map[string]any)
	if !ok {
		return errors.Reason("JSON object is not a map: %v", js)
	}

	rt = rt.Elem() // we really need the original struct type and value
	rv := reflect.ValueOf(m).Elem()
	foundFields := make(map[string]struct{}) // to check for unknown fields
	var missingRequired []string
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		jsonName, ok := jsonFieldName(f)
		if !ok {
			continue
		}
		rfv := rv.FieldByName(f.Name)
		if jv, ok := jsMap[jsonName]; ok {
			foundFields[jsonName] = struct{}{}
			v, err := convert(jv, f.Type)
			if err != nil {
				return errors.Annotate(err, "error assigning field %s", f.Name)
			}
			if err := setChecked(f, rfv, v); err != nil {
				return err
			}
			continue
		}

		// No value in JSON, figure out what to do.
		if f.Tag.Get("required") == "true" {
			missingRequired = append(missingRequired, jsonName)
			continue
		}
		if defaultVal, ok := f.Tag.Lookup("default"); ok {
			v, err := parseDefault(defaultVal, f.Type)
			if err != nil {
				return errors.Annotate(
					err, "error setting default value for %s", f.Name)
			}
			if err := setChecked(f, rfv, v); err != nil {
				return err
			}
			continue
		}
		// Not required and no default: set the zero value. It still needs the
		// validity check in case there is a `choices` tag.
		v, err := convert(nil, f.Type)
		if err != nil {
			return errors.Annotate(err, "error creating default value for %s", f.Name)
		}
		if err := setChecked(f, rfv, v); err != nil {
			return errors.Annotate(err, "error setting zero value for %s", f.Name)
		}
	}
	if len(missingRequired) != 0 {
		return errors.Reason(
			"missing required fields: %s",
			strings.Join(missingRequired, ", "))
	}
	var extraFields []string
	for k := range jsMap {
		if _, ok := foundFields[k]; ok {
			continue
		}
		extraFields = append(extraFields, k)
	}
	if len(extraFields) != 0 {
		return errors.Reason(
			"unsupported fields for %s: %s",
			rt.Name(), strings.Join(extraFields, ", "))
	}
	return nil
}

// FromFile reads a JSON file and initializes the message with its contents.
func FromFile(m Message, fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return errors.Annotate(err, "failed to open '%s'", fileName)
	}
	defer f.Close()
	var js any
	if err := json.NewDecoder(f).Decode(&js); err != nil {
		return errors.Annotate(err, "failed to decode JSON in '%s'", fileName)
	}
	return errors.Annotate(m.InitMessage(js), "failed to init from '%s'", fileName)
}

// StringIn checks that s equals one of the values.
func StringIn(s string, values ...string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
