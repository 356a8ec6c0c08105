package autodiff

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cifar-ml/cifarnet/internal/backend/cpu"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// sumAll reduces a tensor to a float64 for finite-difference checks.
func sumAll(t *tensor.RawTensor) float64 {
	var sum float64
	for _, v := range t.AsFloat32() {
		sum += float64(v)
	}
	return sum
}

// numericGradient perturbs each element of target and measures the change
// in f, approximating d(f)/d(target) with central differences.
func numericGradient(target *tensor.RawTensor, f func() float64, eps float32) []float32 {
	data := target.AsFloat32()
	grad := make([]float32, len(data))
	for i := range data {
		orig := data[i]

		data[i] = orig + eps
		plus := f()
		data[i] = orig - eps
		minus := f()
		data[i] = orig

		grad[i] = float32((plus - minus) / float64(2*eps))
	}
	return grad
}

func TestConv2DGradient_MatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inner := cpu.New()

	input := rawFrom(t, tensor.Shape{1, 2, 4, 4}, nil)
	kernel := rawFrom(t, tensor.Shape{3, 2, 2, 2}, nil)
	for _, raw := range []*tensor.RawTensor{input, kernel} {
		data := raw.AsFloat32()
		for i := range data {
			data[i] = rng.Float32()*2 - 1
		}
	}

	// Analytic gradients of sum(conv(input, kernel)) via the tape.
	b := New(inner)
	b.Tape().StartRecording()
	out := b.Conv2D(input, kernel, 1, 1)
	grads := b.Tape().Backward(onesLike(t, out.Shape()), b)

	loss := func() float64 {
		return sumAll(inner.Conv2D(input, kernel, 1, 1))
	}

	const eps = 1e-2
	const tol = 1e-2

	assertClose(t, grads[input].AsFloat32(), numericGradient(input, loss, eps), tol)
	assertClose(t, grads[kernel].AsFloat32(), numericGradient(kernel, loss, eps), tol)
}

func TestMaxPool2DGradient_MatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	inner := cpu.New()

	input := rawFrom(t, tensor.Shape{1, 1, 4, 4}, nil)
	data := input.AsFloat32()
	perm := rng.Perm(len(data))
	for i, p := range perm {
		// Distinct values keep the argmax stable under perturbation.
		data[i] = float32(p)
	}

	b := New(inner)
	b.Tape().StartRecording()
	out := b.MaxPool2D(input, 2, 2)
	grads := b.Tape().Backward(onesLike(t, out.Shape()), b)

	loss := func() float64 {
		return sumAll(inner.MaxPool2D(input, 2, 2))
	}

	assertClose(t, grads[input].AsFloat32(), numericGradient(input, loss, 1e-2), 1e-3)
}

func TestCrossEntropyGradient_MatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	inner := cpu.New()

	logits := rawFrom(t, tensor.Shape{4, 10}, nil)
	data := logits.AsFloat32()
	for i := range data {
		data[i] = rng.Float32()*2 - 1
	}

	targets := rawFrom(t, tensor.Shape{4, 10}, nil)
	for b := 0; b < 4; b++ {
		targets.AsFloat32()[b*10+rng.Intn(10)] = 1
	}

	b := New(inner)
	b.Tape().StartRecording()
	loss := b.CrossEntropy(logits, targets)
	grads := b.Tape().Backward(onesLike(t, loss.Shape()), b)

	f := func() float64 {
		noTape := New(inner)
		return float64(noTape.CrossEntropy(logits, targets).AsFloat32()[0])
	}

	numeric := numericGradient(logits, f, 1e-2)
	analytic := grads[logits].AsFloat32()
	for i := range numeric {
		if math.Abs(float64(analytic[i]-numeric[i])) > 1e-3 {
			t.Fatalf("element %d: analytic %v, numeric %v", i, analytic[i], numeric[i])
		}
	}
}
