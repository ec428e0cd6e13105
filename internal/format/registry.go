// Package format holds the per-type cell formatters and filter widget
// identifiers of the grid, configured explicitly instead of through globals.
package format

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Settings controls number rendering and row identity
type Settings struct {
	IDField           string `mapstructure:"id_field"`
	ThousandSeparator string `mapstructure:"thousand_separator"`
	DecimalPrecision  int    `mapstructure:"decimal_precision"`
	DecimalSeparator  string `mapstructure:"decimal_separator"`
}

// Calendar holds date templates
type Calendar struct {
	DateFormat     string `mapstructure:"date_format"`
	DateTimeFormat string `mapstructure:"date_time_format"`
	TimeFormat     string `mapstructure:"time_format"`
	WeekStart      int    `mapstructure:"week_start"`
}

// Lang holds the user-visible words used by formatters and the pager
type Lang struct {
	Yes          string `mapstructure:"yes"`
	No           string `mapstructure:"no"`
	PagerPage    string `mapstructure:"pager_page"`
	PagerOfPages string `mapstructure:"pager_of_pages"`
}

// Locale bundles everything a Registry needs
type Locale struct {
	Settings Settings `mapstructure:"settings"`
	Calendar Calendar `mapstructure:"calendar"`
	Lang     Lang     `mapstructure:"lang"`
}

// DefaultLocale returns the built-in locale
func DefaultLocale() Locale {
	return Locale{
		Settings: Settings{
			IDField:           "id",
			ThousandSeparator: " ",
			DecimalPrecision:  2,
			DecimalSeparator:  ".",
		},
		Calendar: Calendar{
			DateFormat:     "YYYY-MM-DD",
			DateTimeFormat: "YYYY-MM-DD HH:mm",
			TimeFormat:     "HH:mm",
			WeekStart:      1,
		},
		Lang: Lang{
			Yes:          "Yes",
			No:           "No",
			PagerPage:    "Page",
			PagerOfPages: "of",
		},
	}
}

// Options tweaks a single formatter call. Zero values fall back to the locale.
type Options struct {
	Template  string
	Precision *int
	Thousand  *string
	Decimal   *string
}

// Formatter renders a cell value
type Formatter func(value interface{}, opts Options) string

// NumericFilterParams configures a numeric filter widget
type NumericFilterParams struct {
	Decimal bool
}

// Type describes how a field type is rendered and filtered
type Type struct {
	Name            string
	Formatter       Formatter
	FilterComponent string
	FilterParams    interface{}
}

// FilterComponent identifies the filter widget for a type
type FilterComponent struct {
	Component string
	Params    interface{}
}

// Registry maps type names to their definitions
type Registry struct {
	locale Locale
	types  map[string]Type
}

// NewRegistry creates a registry with the built-in types
func NewRegistry(locale Locale) *Registry {
	r := &Registry{
		locale: locale,
		types:  make(map[string]Type),
	}

	r.Add(Type{Name: "bool", Formatter: r.formatBool, FilterComponent: "BoolFilter"})
	r.Add(Type{Name: "date", Formatter: r.dateFormatter(func(c Calendar) string { return c.DateFormat }), FilterComponent: "DateFilter"})
	r.Add(Type{Name: "dateTime", Formatter: r.dateFormatter(func(c Calendar) string { return c.DateTimeFormat }), FilterComponent: "DateTimeFilter"})
	r.Add(Type{Name: "decimal", Formatter: r.formatDecimal, FilterComponent: "NumericFilter", FilterParams: NumericFilterParams{Decimal: true}})
	r.Add(Type{Name: "double", Formatter: r.formatDecimal, FilterComponent: "NumericFilter", FilterParams: NumericFilterParams{Decimal: true}})
	r.Add(Type{Name: "int", Formatter: r.formatInt, FilterComponent: "NumericFilter", FilterParams: NumericFilterParams{Decimal: false}})
	r.Add(Type{Name: "text", FilterComponent: "TextFilter"})

	return r
}

// Locale returns the locale the registry was built with
func (r *Registry) Locale() Locale {
	return r.locale
}

// Add registers or replaces a type
func (r *Registry) Add(t Type) {
	r.types[t.Name] = t
}

// SetFilterComponent changes the filter widget of an existing type
func (r *Registry) SetFilterComponent(typeName, component string) {
	if t, ok := r.types[typeName]; ok {
		t.FilterComponent = component
		r.types[typeName] = t
	}
}

// Formatter returns the formatter for a type, or the default one
func (r *Registry) Formatter(typeName string) Formatter {
	if t, ok := r.types[typeName]; ok && t.Formatter != nil {
		return t.Formatter
	}
	return defaultFormatter
}

// FilterComponent returns the filter widget of a type
func (r *Registry) FilterComponent(typeName string) (FilterComponent, bool) {
	t, ok := r.types[typeName]
	if !ok || t.FilterComponent == "" {
		return FilterComponent{}, false
	}
	return FilterComponent{Component: t.FilterComponent, Params: t.FilterParams}, true
}

// Format renders value with the formatter of typeName
func (r *Registry) Format(typeName string, value interface{}) string {
	return r.Formatter(typeName)(value, Options{})
}

func defaultFormatter(value interface{}, _ Options) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", value)
}

func (r *Registry) formatBool(value interface{}, _ Options) string {
	if value == nil {
		return ""
	}
	if truthy(value) {
		return r.locale.Lang.Yes
	}
	return r.locale.Lang.No
}

func (r *Registry) dateFormatter(template func(Calendar) string) Formatter {
	return func(value interface{}, opts Options) string {
		t, ok := toTime(value)
		if !ok {
			return defaultFormatter(value, opts)
		}
		tmpl := opts.Template
		if tmpl == "" {
			tmpl = template(r.locale.Calendar)
		}
		return FormatDate(t, tmpl)
	}
}

func (r *Registry) formatDecimal(value interface{}, opts Options) string {
	f, ok := toFloat(value)
	if !ok {
		return defaultFormatter(value, opts)
	}
	if f == 0 {
		return "0"
	}
	s := r.locale.Settings
	precision := s.DecimalPrecision
	if opts.Precision != nil {
		precision = *opts.Precision
	}
	return FormatNumber(f, precision, pick(opts.Thousand, s.ThousandSeparator), pick(opts.Decimal, s.DecimalSeparator))
}

func (r *Registry) formatInt(value interface{}, opts Options) string {
	f, ok := toFloat(value)
	if !ok {
		return defaultFormatter(value, opts)
	}
	if f == 0 {
		return "0"
	}
	s := r.locale.Settings
	return FormatNumber(f, 0, pick(opts.Thousand, s.ThousandSeparator), pick(opts.Decimal, s.DecimalSeparator))
}

func pick(override *string, fallback string) string {
	if override != nil {
		return *override
	}
	return fallback
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	f, ok := toFloat(value)
	return ok && f != 0
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		return models.ParseTime(v)
	}
	return time.Time{}, false
}
