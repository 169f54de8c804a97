// Package display renders engine results as strings for UI and tabular consumers.
package display

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/noah-isme/gradebook-api/internal/grading"
)

const (
	defaultPlaceholder     = "-"
	defaultUnassignedLabel = "N/A"
	maxDecimals            = 4
)

// Options configures a Formatter.
type Options struct {
	Locale          string
	Decimals        int
	Placeholder     string
	UnassignedLabel string
}

// Formatter truncates and localizes numeric results. It is immutable and safe for
// concurrent use.
type Formatter struct {
	tag             language.Tag
	printer         *message.Printer
	decimals        int
	placeholder     string
	unassignedLabel string
}

// New builds a formatter. An empty locale selects English.
func New(opts Options) (*Formatter, error) {
	tag := language.English
	if strings.TrimSpace(opts.Locale) != "" {
		parsed, err := language.Parse(opts.Locale)
		if err != nil {
			return nil, fmt.Errorf("parse display locale %q: %w", opts.Locale, err)
		}
		tag = parsed
	}
	if opts.Decimals < 0 || opts.Decimals > maxDecimals {
		return nil, fmt.Errorf("display decimals must be between 0 and %d, got %d", maxDecimals, opts.Decimals)
	}
	if opts.Placeholder == "" {
		opts.Placeholder = defaultPlaceholder
	}
	if opts.UnassignedLabel == "" {
		opts.UnassignedLabel = defaultUnassignedLabel
	}
	return &Formatter{
		tag:             tag,
		printer:         message.NewPrinter(tag),
		decimals:        opts.Decimals,
		placeholder:     opts.Placeholder,
		unassignedLabel: opts.UnassignedLabel,
	}, nil
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// Placeholder is rendered wherever no value exists yet.
func (f *Formatter) Placeholder() string {
	return f.placeholder
}

// Format renders any engine result according to its mode.
func (f *Formatter) Format(result grading.Result) string {
	switch r := result.(type) {
	case grading.AssignmentResult:
		return f.formatAssignment(r)
	case grading.CategoryResult:
		return f.formatCategory(r)
	case grading.CourseGradeResult:
		return f.Percent(r.Percentage)
	default:
		panic(fmt.Sprintf("display: unsupported result %T", result))
	}
}

// CourseLetter renders the effective course letter or the placeholder.
func (f *Formatter) CourseLetter(result grading.CourseGradeResult) string {
	if !result.HasLetter() {
		return f.placeholder
	}
	return result.Letter
}

// Percent renders a percentage with a trailing "%".
func (f *Formatter) Percent(value *float64) string {
	if value == nil {
		return f.placeholder
	}
	return f.Number(*value) + "%"
}

// Points renders a points value.
func (f *Formatter) Points(value *float64) string {
	if value == nil {
		return f.placeholder
	}
	return f.Number(*value)
}

// Number truncates value to the configured decimals and renders it for the locale.
func (f *Formatter) Number(value float64) string {
	return f.printer.Sprint(number.Decimal(truncate(value, f.decimals), number.Scale(f.decimals)))
}

func (f *Formatter) formatAssignment(r grading.AssignmentResult) string {
	switch r.Display {
	case grading.ModeLetter:
		if r.Letter == "" {
			return f.placeholder
		}
		return r.Letter
	case grading.ModePercent:
		return f.Percent(r.Percentage)
	default:
		return f.Points(r.PointsEarned)
	}
}

func (f *Formatter) formatCategory(r grading.CategoryResult) string {
	if r.Percentage == nil && r.Excluded {
		return f.unassignedLabel
	}
	if r.Display == grading.ModePoints {
		if r.Percentage == nil {
			return f.placeholder
		}
		earned := r.PointsEarned
		return f.Points(&earned)
	}
	return f.Percent(r.Percentage)
}

// truncate rounds toward negative infinity at the given number of decimals.
func truncate(value float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	// 1e-9 absorbs binary representation error such as 0.29*100.
	return math.Floor(value*scale+1e-9) / scale
}
