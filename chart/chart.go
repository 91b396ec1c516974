// Package chart renders a result column as a terminal chart, keyed by a
// category column.
package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"bqexplore/core"
)

// Kind selects the chart flavor.
type Kind int

const (
	KindBar Kind = iota
	KindLine
	KindArea
)

func (k Kind) String() string {
	switch k {
	case KindBar:
		return "bar"
	case KindLine:
		return "line"
	case KindArea:
		return "area"
	default:
		return "unknown"
	}
}

// Next cycles to the following chart kind.
func (k Kind) Next() Kind {
	switch k {
	case KindBar:
		return KindLine
	case KindLine:
		return KindArea
	default:
		return KindBar
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "bar":
		return KindBar, nil
	case "line":
		return KindLine, nil
	case "area":
		return KindArea, nil
	default:
		return KindBar, fmt.Errorf("unknown chart kind: %q", s)
	}
}

// Options control chart dimensions.
type Options struct {
	Width  int
	Height int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 60
	}
	if o.Height <= 0 {
		o.Height = 10
	}
	return o
}

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

// Render draws the chart of the value column keyed by the category column.
// An empty result renders nothing - no chart, no error.
func Render(header core.Header, rows []core.Row, kind Kind, categoryCol, valueCol string, opts Options) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}

	opts = opts.withDefaults()

	categoryIdx, err := columnIndex(header, categoryCol)
	if err != nil {
		return "", err
	}
	valueIdx, err := columnIndex(header, valueCol)
	if err != nil {
		return "", err
	}

	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if categoryIdx >= len(row) || valueIdx >= len(row) {
			return "", fmt.Errorf("row is narrower than the header")
		}

		value, err := toFloat(row[valueIdx])
		if err != nil {
			return "", fmt.Errorf("column %q: %w", valueCol, err)
		}

		labels = append(labels, fmt.Sprint(row[categoryIdx]))
		values = append(values, value)
	}

	caption := fmt.Sprintf("%s by %s", valueCol, categoryCol)

	switch kind {
	case KindBar:
		return renderBars(labels, values, opts), nil
	case KindLine:
		plot := asciigraph.Plot(values,
			asciigraph.Height(opts.Height),
			asciigraph.Width(opts.Width),
			asciigraph.Caption(caption),
		)
		return plot, nil
	case KindArea:
		return renderArea(values, caption, opts), nil
	default:
		return "", fmt.Errorf("unknown chart kind: %d", kind)
	}
}

// renderBars draws one horizontal bar per category, scaled to the largest
// value.
func renderBars(labels []string, values []float64, opts Options) string {
	maxValue := values[0]
	labelWidth := 0
	for i, v := range values {
		if v > maxValue {
			maxValue = v
		}
		if len(labels[i]) > labelWidth {
			labelWidth = len(labels[i])
		}
	}

	var sb strings.Builder
	for i, v := range values {
		barLen := 0
		if maxValue > 0 && v > 0 {
			barLen = int(v / maxValue * float64(opts.Width))
		}
		if barLen == 0 && v > 0 {
			barLen = 1
		}

		sb.WriteString(fmt.Sprintf("%-*s ", labelWidth, labels[i]))
		sb.WriteString(barStyle.Render(strings.Repeat("█", barLen)))
		sb.WriteString(fmt.Sprintf(" %s\n", formatValue(v)))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// renderArea draws the value series as a filled silhouette, one column per
// sample, downsampled to the available width.
func renderArea(values []float64, caption string, opts Options) string {
	samples := resample(values, opts.Width)

	maxValue := samples[0]
	for _, v := range samples {
		if v > maxValue {
			maxValue = v
		}
	}

	heights := make([]int, len(samples))
	for i, v := range samples {
		if maxValue > 0 && v > 0 {
			heights[i] = int(v / maxValue * float64(opts.Height))
			if heights[i] == 0 {
				heights[i] = 1
			}
		}
	}

	var sb strings.Builder
	for line := opts.Height; line > 0; line-- {
		for _, h := range heights {
			if h >= line {
				sb.WriteString(barStyle.Render("█"))
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("─", len(samples)))
	sb.WriteString("\n")
	sb.WriteString(caption)

	return sb.String()
}

// resample shrinks the series to at most width samples by averaging buckets.
func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}

	out := make([]float64, width)
	bucket := float64(len(values)) / float64(width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * bucket)
		end := int(float64(i+1) * bucket)
		if end > len(values) {
			end = len(values)
		}
		if start >= end {
			start = end - 1
		}

		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}

	return out
}

func columnIndex(header core.Header, name string) (int, error) {
	for i, column := range header {
		if column == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column named %q in result", name)
}

// toFloat coerces the numeric types a driver may hand back.
func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", value)
	}
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
