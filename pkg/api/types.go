package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// AnnotationRequest is the inbound request: an image encoded as base64 text
// and a natural-language prompt.
type AnnotationRequest struct {
	Image  string `json:"imageBase64"`
	Prompt string `json:"prompt"`
}

// Validate checks the request for required fields. An empty prompt is
// accepted; what the backend does with it is backend dependent.
func (r *AnnotationRequest) Validate() *APIError {
	if r.Image == "" {
		return NewInvalidRequestError("imageBase64", "image payload is required")
	}
	return nil
}

// AxisOrder names the order in which a backend reports the two components
// of a point.
type AxisOrder int

const (
	// AxisRowColumn is the canonical (y, x) order.
	AxisRowColumn AxisOrder = iota
	// AxisColumnRow is the (x, y) order; points must be swapped.
	AxisColumnRow
)

// String returns a short label for logs.
func (o AxisOrder) String() string {
	switch o {
	case AxisRowColumn:
		return "row,column"
	case AxisColumnRow:
		return "column,row"
	default:
		return fmt.Sprintf("axis(%d)", int(o))
	}
}

// Point is a (row, column) pair of non-negative integers.
type Point [2]int

// Row returns the first component.
func (p Point) Row() int { return p[0] }

// Column returns the second component.
func (p Point) Column() int { return p[1] }

// Swap returns the point with its components exchanged.
func (p Point) Swap() Point { return Point{p[1], p[0]} }

// UnmarshalJSON accepts exactly two non-negative integers that fit in 32
// unsigned bits.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("point: expected 2 components, got %d", len(raw))
	}
	for i, c := range raw {
		n, ok := c.(json.Number)
		if !ok {
			return fmt.Errorf("point[%d]: %v is not a number", i, c)
		}
		v, err := n.Int64()
		if err != nil {
			return fmt.Errorf("point[%d]: %s is not an integer", i, n)
		}
		if v < 0 || v > math.MaxUint32 {
			return fmt.Errorf("point[%d]: %d out of range", i, v)
		}
		p[i] = int(v)
	}
	return nil
}

// Annotation is the canonical output shape: a point in (row, column) order
// and a text label. An empty label is allowed.
type Annotation struct {
	Point Point  `json:"point"`
	Label string `json:"label"`
}

// NewAnnotation builds an Annotation, rejecting negative coordinates.
func NewAnnotation(row, col int, label string) (Annotation, error) {
	if row < 0 || col < 0 {
		return Annotation{}, fmt.Errorf("annotation: negative coordinate (%d, %d)", row, col)
	}
	return Annotation{Point: Point{row, col}, Label: label}, nil
}

// UnmarshalJSON requires both the point and the label to be present.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Point *Point  `json:"point"`
		Label *string `json:"label"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Point == nil {
		return fmt.Errorf("annotation: missing point")
	}
	if raw.Label == nil {
		return fmt.Errorf("annotation: missing label")
	}
	a.Point = *raw.Point
	a.Label = *raw.Label
	return nil
}

// Outcome labels how a result was produced.
type Outcome string

const (
	OutcomeStructured Outcome = "structured"
	OutcomeRaw        Outcome = "raw"
)

// Result is what the gateway returns for a successful backend reply:
// either a list of annotations or, when no annotation array could be
// recovered, the backend's text unchanged.
type Result struct {
	Annotations []Annotation
	Raw         string
	structured  bool
}

// Structured wraps a list of annotations. A nil list becomes an empty one,
// so "no detections" stays distinct from the raw fallback.
func Structured(list []Annotation) *Result {
	if list == nil {
		list = []Annotation{}
	}
	return &Result{Annotations: list, structured: true}
}

// RawText wraps text that could not be parsed into annotations.
func RawText(text string) *Result {
	return &Result{Raw: text}
}

// IsRaw reports whether the result is the raw-text fallback.
func (r *Result) IsRaw() bool { return !r.structured }

// Outcome returns the outcome label for metrics and logs.
func (r *Result) Outcome() Outcome {
	if r.structured {
		return OutcomeStructured
	}
	return OutcomeRaw
}
