package nn

import (
	"math"
	"testing"

	"github.com/cifar-ml/cifarnet/internal/autodiff"
	"github.com/cifar-ml/cifarnet/internal/backend/cpu"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

func fromSlice(t *testing.T, data []float32, shape tensor.Shape, b adBackend) *tensor.Tensor[float32, adBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, b)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestLinearForward_Shape(t *testing.T) {
	b := newBackend()
	layer := NewLinear(8, 4, b)

	input := tensor.Randn(tensor.Shape{2, 8}, b)
	output := layer.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 4}) {
		t.Errorf("output shape: got %v, want [2 4]", output.Shape())
	}
	if len(layer.Parameters()) != 2 {
		t.Errorf("parameters: got %d, want 2", len(layer.Parameters()))
	}
}

func TestLinearForward_KnownValues(t *testing.T) {
	b := newBackend()
	layer := NewLinear(2, 2, b)

	// Overwrite the random init with known weights.
	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4}) // [[1,2],[3,4]]
	copy(layer.Bias().Tensor().Data(), []float32{10, 20})

	input := fromSlice(t, []float32{1, 1}, tensor.Shape{1, 2}, b)
	output := layer.Forward(input)

	// y = x @ Wᵀ + b = [1+2, 3+4] + [10, 20].
	want := []float32{13, 27}
	for i, v := range output.Data() {
		if math.Abs(float64(v-want[i])) > 1e-5 {
			t.Errorf("output[%d]: got %v, want %v", i, v, want[i])
		}
	}
}

func TestConv2DForward_OutputSize(t *testing.T) {
	b := newBackend()

	// Padded conv keeps the spatial size; unpadded shrinks it.
	padded := NewConv2D(3, 32, 3, 1, 1, b)
	unpadded := NewConv2D(32, 32, 3, 1, 0, b)

	input := tensor.Randn(tensor.Shape{2, 3, 32, 32}, b)
	out := padded.Forward(input)
	if !out.Shape().Equal(tensor.Shape{2, 32, 32, 32}) {
		t.Fatalf("padded output: got %v, want [2 32 32 32]", out.Shape())
	}

	out = unpadded.Forward(out)
	if !out.Shape().Equal(tensor.Shape{2, 32, 30, 30}) {
		t.Fatalf("unpadded output: got %v, want [2 32 30 30]", out.Shape())
	}

	if h, w := padded.OutputSize(32, 32); h != 32 || w != 32 {
		t.Errorf("OutputSize padded: got %dx%d, want 32x32", h, w)
	}
}

func TestMaxPool2DForward(t *testing.T) {
	b := newBackend()
	pool := NewMaxPool2D(2, 2, b)

	input := tensor.Randn(tensor.Shape{1, 4, 8, 8}, b)
	output := pool.Forward(input)

	if !output.Shape().Equal(tensor.Shape{1, 4, 4, 4}) {
		t.Errorf("output shape: got %v, want [1 4 4 4]", output.Shape())
	}
	if len(pool.Parameters()) != 0 {
		t.Errorf("maxpool should have no parameters")
	}
}

func TestFlattenForward(t *testing.T) {
	b := newBackend()
	flatten := NewFlatten[adBackend]()

	input := tensor.Randn(tensor.Shape{2, 64, 6, 6}, b)
	output := flatten.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 2304}) {
		t.Errorf("output shape: got %v, want [2 2304]", output.Shape())
	}
}

func TestReLUForward(t *testing.T) {
	b := newBackend()
	relu := NewReLU[adBackend]()

	input := fromSlice(t, []float32{-1, 0, 2, -3}, tensor.Shape{4}, b)
	output := relu.Forward(input)

	want := []float32{0, 0, 2, 0}
	for i, v := range output.Data() {
		if v != want[i] {
			t.Errorf("output[%d]: got %v, want %v", i, v, want[i])
		}
	}
}

func TestSoftmaxForward_SumsToOne(t *testing.T) {
	b := newBackend()
	softmax := NewSoftmax[adBackend]()

	input := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 4}, b)
	output := softmax.Forward(input)

	var sum float32
	for _, v := range output.Data() {
		sum += v
	}
	if math.Abs(float64(sum-1)) > 1e-5 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
}

func TestDropout_EvalIsIdentity(t *testing.T) {
	b := newBackend()
	dropout := NewDropoutWithSeed[adBackend](0.5, 1, b)

	input := tensor.Randn(tensor.Shape{4, 4}, b)
	output := dropout.Forward(input)

	if output != input {
		t.Error("dropout in eval mode should return its input unchanged")
	}
}

func TestDropout_TrainingDropsAndScales(t *testing.T) {
	b := newBackend()
	dropout := NewDropoutWithSeed[adBackend](0.5, 42, b)
	dropout.SetTraining(true)

	input := tensor.Ones[float32](tensor.Shape{1000}, b)
	output := dropout.Forward(input)

	zeros := 0
	for _, v := range output.Data() {
		switch v {
		case 0:
			zeros++
		case 2:
			// survivor scaled by 1/(1-0.5)
		default:
			t.Fatalf("unexpected value %v, want 0 or 2", v)
		}
	}

	// Should drop roughly half. Allow generous slack for the rng.
	if zeros < 400 || zeros > 600 {
		t.Errorf("dropped %d of 1000, want about 500", zeros)
	}
}

func TestSequential_TrainingFlagPropagates(t *testing.T) {
	b := newBackend()
	dropout := NewDropoutWithSeed[adBackend](0.25, 7, b)

	model := NewSequential[adBackend](
		NewLinear(4, 4, b),
		NewReLU[adBackend](),
		dropout,
	)

	model.SetTraining(true)
	if !dropout.Training() {
		t.Error("SetTraining(true) did not reach the dropout layer")
	}
	model.SetTraining(false)
	if dropout.Training() {
		t.Error("SetTraining(false) did not reach the dropout layer")
	}
}

func TestSequential_CollectsParameters(t *testing.T) {
	b := newBackend()
	model := NewSequential[adBackend](
		NewConv2D(3, 8, 3, 1, 1, b),
		NewReLU[adBackend](),
		NewMaxPool2D(2, 2, b),
		NewFlatten[adBackend](),
		NewLinear(8*16*16, 10, b),
	)

	// conv weight+bias, linear weight+bias.
	if got := len(model.Parameters()); got != 4 {
		t.Errorf("parameters: got %d, want 4", got)
	}
}

func TestCategoricalCrossEntropy_UniformLogits(t *testing.T) {
	b := newBackend()
	loss := NewCategoricalCrossEntropy(b)

	logits := tensor.Zeros[float32](tensor.Shape{2, 10}, b)
	targets := tensor.Zeros[float32](tensor.Shape{2, 10}, b)
	targets.Set(1, 0, 3)
	targets.Set(1, 1, 7)

	out := loss.Forward(logits, targets)

	want := float32(math.Log(10))
	if got := out.Data()[0]; math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("loss: got %v, want %v", got, want)
	}
}

func TestAccuracy(t *testing.T) {
	b := newBackend()

	preds := fromSlice(t, []float32{
		0.9, 0.1, // class 0, correct
		0.2, 0.8, // class 1, correct
		0.7, 0.3, // class 0, wrong
		0.4, 0.6, // class 1, correct
	}, tensor.Shape{4, 2}, b)

	targets := fromSlice(t, []float32{
		1, 0,
		0, 1,
		0, 1,
		0, 1,
	}, tensor.Shape{4, 2}, b)

	if got := Accuracy(preds, targets); got != 0.75 {
		t.Errorf("accuracy: got %v, want 0.75", got)
	}
}

func TestTrainStep_GradientsReachAllParameters(t *testing.T) {
	b := newBackend()

	model := NewSequential[adBackend](
		NewConv2D(3, 4, 3, 1, 1, b),
		NewReLU[adBackend](),
		NewMaxPool2D(2, 2, b),
		NewFlatten[adBackend](),
		NewLinear(4*4*4, 10, b),
	)
	loss := NewCategoricalCrossEntropy(b)

	b.Tape().StartRecording()

	input := tensor.Randn(tensor.Shape{2, 3, 8, 8}, b)
	targets := tensor.Zeros[float32](tensor.Shape{2, 10}, b)
	targets.Set(1, 0, 1)
	targets.Set(1, 1, 5)

	out := model.Forward(input)
	l := loss.Forward(out, targets)

	grads := autodiff.Backward(l, b)

	for _, p := range model.Parameters() {
		if grads[p.Tensor().Raw()] == nil {
			t.Errorf("no gradient for parameter %q", p.Name())
		}
	}
}
