package tensor_test

import (
	"math"
	"testing"

	"github.com/cifar-ml/cifarnet/internal/backend/cpu"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape tensor.Shape
		want  int
	}{
		{tensor.Shape{}, 1},
		{tensor.Shape{5}, 5},
		{tensor.Shape{2, 3}, 6},
		{tensor.Shape{128, 32, 32, 3}, 393216},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShape_ComputeStrides(t *testing.T) {
	strides := tensor.Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("strides = %v, want %v", strides, want)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	out, needs, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(tensor.Shape{3, 5}) || !needs {
		t.Errorf("got %v (broadcast=%v), want [3 5] (broadcast=true)", out, needs)
	}

	if _, _, err := tensor.BroadcastShapes(tensor.Shape{3, 4}, tensor.Shape{3, 5}); err == nil {
		t.Error("expected error for incompatible shapes")
	}
}

func TestNewRaw_InvalidShape(t *testing.T) {
	if _, err := tensor.NewRaw(tensor.Shape{3, 0}, tensor.Float32, tensor.CPU); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestFromSlice_RoundTrip(t *testing.T) {
	backend := cpu.New()

	data := []float32{1, 2, 3, 4, 5, 6}
	tr, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	if got := tr.At(1, 2); got != 6 {
		t.Errorf("At(1,2) = %v, want 6", got)
	}
	if got := tr.At(0, 0); got != 1 {
		t.Errorf("At(0,0) = %v, want 1", got)
	}
}

func TestFromSlice_ShapeMismatch(t *testing.T) {
	backend := cpu.New()
	if _, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, backend); err == nil {
		t.Error("expected error for element count mismatch")
	}
}

func TestTensor_AddBroadcast(t *testing.T) {
	backend := cpu.New()

	a := tensor.Ones[float32](tensor.Shape{3, 1}, backend)
	b := tensor.Full[float32](tensor.Shape{3, 4}, 2, backend)
	c := a.Add(b)

	if !c.Shape().Equal(tensor.Shape{3, 4}) {
		t.Fatalf("shape = %v, want [3 4]", c.Shape())
	}
	for _, v := range c.Data() {
		if v != 3 {
			t.Fatalf("value = %v, want 3", v)
		}
	}
}

func TestTensor_CloneSharesBuffer(t *testing.T) {
	backend := cpu.New()

	a := tensor.Ones[float32](tensor.Shape{4}, backend)
	if !a.Raw().IsUnique() {
		t.Fatal("fresh tensor should be unique")
	}

	b := a.Clone()
	if a.Raw().IsUnique() {
		t.Error("clone should share the buffer")
	}
	b.Raw().Release()
	if !a.Raw().IsUnique() {
		t.Error("release should restore uniqueness")
	}
}

func TestTensor_Item(t *testing.T) {
	backend := cpu.New()

	s := tensor.Full[float32](tensor.Shape{1}, 42, backend)
	if got := s.Item(); got != 42 {
		t.Errorf("Item() = %v, want 42", got)
	}
}

func TestRandn_FiniteValues(t *testing.T) {
	backend := cpu.New()

	n := tensor.Randn(tensor.Shape{64, 1024}, backend)
	for i, v := range n.Data() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("element %d is not finite: %v", i, v)
		}
	}
}
