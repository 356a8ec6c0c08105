package optim

import (
	"math"
	"testing"

	"github.com/cifar-ml/cifarnet/internal/backend/cpu"
	"github.com/cifar-ml/cifarnet/internal/nn"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

func newParam(t *testing.T, b *cpu.CPUBackend, values []float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{len(values)}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), values)
	return nn.NewParameter("w", tensor.New[float32, *cpu.CPUBackend](raw, b))
}

func gradFor(t *testing.T, param *nn.Parameter[*cpu.CPUBackend], values []float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(param.Tensor().Shape(), tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), values)
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): raw}
}

func TestSGD_PlainUpdate(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1, 2, 3})
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param}, SGDConfig{LR: 0.1}, b)

	opt.Step(gradFor(t, param, []float32{1, 1, 1}))

	want := []float32{0.9, 1.9, 2.9}
	for i, v := range param.Tensor().Data() {
		if math.Abs(float64(v-want[i])) > 1e-6 {
			t.Errorf("param[%d]: got %v, want %v", i, v, want[i])
		}
	}
}

func TestSGD_SkipsParamsWithoutGrad(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1, 2})
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param}, SGDConfig{LR: 0.5}, b)

	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	want := []float32{1, 2}
	for i, v := range param.Tensor().Data() {
		if v != want[i] {
			t.Errorf("param[%d] changed without a gradient: got %v", i, v)
		}
	}
}

func TestRMSProp_FirstStep(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	opt := NewRMSProp([]*nn.Parameter[*cpu.CPUBackend]{param}, RMSPropConfig{LR: 0.1}, b)

	opt.Step(gradFor(t, param, []float32{2}))

	// acc = 0.1 * 4 = 0.4; step = 0.1 * 2 / (sqrt(0.4) + 1e-7).
	want := 1 - 0.1*2/(float32(math.Sqrt(0.4))+1e-7)
	got := param.Tensor().Data()[0]
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("param: got %v, want %v", got, want)
	}
}

func TestRMSProp_DecaySchedule(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	opt := NewRMSProp([]*nn.Parameter[*cpu.CPUBackend]{param}, RMSPropConfig{LR: 1, Decay: 1}, b)

	// Before any step the effective lr is lr / (1 + decay*0) = 1.
	if got := opt.GetLR(); got != 1 {
		t.Errorf("initial lr: got %v, want 1", got)
	}

	opt.Step(gradFor(t, param, []float32{1}))
	if got := opt.GetLR(); got != 0.5 {
		t.Errorf("lr after one step: got %v, want 0.5", got)
	}

	opt.Step(gradFor(t, param, []float32{1}))
	if got, want := opt.GetLR(), float32(1.0/3.0); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("lr after two steps: got %v, want %v", got, want)
	}
}

func TestRMSProp_ConvergesOnQuadratic(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{5})
	opt := NewRMSProp([]*nn.Parameter[*cpu.CPUBackend]{param}, RMSPropConfig{LR: 0.1}, b)

	// Minimize f(x) = x² with analytic gradient 2x.
	for i := 0; i < 200; i++ {
		x := param.Tensor().Data()[0]
		opt.Step(gradFor(t, param, []float32{2 * x}))
	}

	if got := param.Tensor().Data()[0]; math.Abs(float64(got)) > 0.05 {
		t.Errorf("x after optimization: got %v, want near 0", got)
	}
}

func TestZeroGrad(t *testing.T) {
	b := cpu.New()
	param := newParam(t, b, []float32{1})
	param.SetGrad(tensor.Zeros[float32](tensor.Shape{1}, b))

	opt := NewRMSProp([]*nn.Parameter[*cpu.CPUBackend]{param}, RMSPropConfig{}, b)
	opt.ZeroGrad()

	if param.Grad() != nil {
		t.Error("ZeroGrad did not clear the parameter gradient")
	}
}
