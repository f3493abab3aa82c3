package vector

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"docrag/internal/util"

	"github.com/pgvector/pgvector-go"
)

// Encode renders v as a pgvector literal: "[v1,v2,...]" with '.' decimals,
// no exponent and no spaces. Non-finite components are rejected.
func Encode(v []float32) (string, error) {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", util.Dependency("encode vector", nil, "embedding contains non-finite value at index %d", i)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// Decode parses a pgvector literal back into its components.
func Decode(literal string) ([]float32, error) {
	if len(literal) < 2 || literal[0] != '[' || literal[len(literal)-1] != ']' {
		return nil, fmt.Errorf("parse vector literal: malformed %q", literal)
	}
	if literal == "[]" {
		return []float32{}, nil
	}
	var v pgvector.Vector
	if err := v.Parse(literal); err != nil {
		return nil, fmt.Errorf("parse vector literal: %w", err)
	}
	return v.Slice(), nil
}

// Codec pins the deployment-wide embedding dimension.
type Codec struct {
	Dim int
}

func NewCodec(dim int) Codec {
	return Codec{Dim: dim}
}

// Encode checks the dimension before encoding. A zero Dim disables the check.
func (c Codec) Encode(v []float32) (string, error) {
	if len(v) == 0 {
		return "", util.Dependency("encode vector", nil, "embedding is empty")
	}
	if c.Dim > 0 && len(v) != c.Dim {
		return "", util.Dependency("encode vector", nil, "embedding dimension %d does not match configured dimension %d", len(v), c.Dim)
	}
	return Encode(v)
}
