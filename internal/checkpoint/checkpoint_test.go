package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

func rawFrom(t *testing.T, shape tensor.Shape, values []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(raw.AsFloat32(), values)
	return raw
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.cfnt")

	stateDict := map[string]*tensor.RawTensor{
		"layer.0.weight": rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6}),
		"layer.0.bias":   rawFrom(t, tensor.Shape{3}, []float32{-1, 0, 1}),
	}

	meta := &TrainingMeta{Step: 42, Loss: 1.5}
	if err := Save(path, "Sequential", stateDict, meta); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, header, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if header.ModelType != "Sequential" {
		t.Errorf("ModelType = %q, want Sequential", header.ModelType)
	}
	if header.Training == nil || header.Training.Step != 42 {
		t.Errorf("Training meta = %+v, want step 42", header.Training)
	}

	if len(loaded) != len(stateDict) {
		t.Fatalf("loaded %d tensors, want %d", len(loaded), len(stateDict))
	}
	for name, want := range stateDict {
		got, ok := loaded[name]
		if !ok {
			t.Fatalf("missing tensor %q", name)
		}
		if !got.Shape().Equal(want.Shape()) {
			t.Errorf("%s: shape %v, want %v", name, got.Shape(), want.Shape())
		}
		gotData, wantData := got.AsFloat32(), want.AsFloat32()
		for i := range wantData {
			if gotData[i] != wantData[i] {
				t.Errorf("%s[%d] = %v, want %v", name, i, gotData[i], wantData[i])
			}
		}
	}
}

func TestSave_DeterministicBytes(t *testing.T) {
	dir := t.TempDir()
	stateDict := map[string]*tensor.RawTensor{
		"b": rawFrom(t, tensor.Shape{2}, []float32{3, 4}),
		"a": rawFrom(t, tensor.Shape{2}, []float32{1, 2}),
	}

	// Tensor layout must not depend on map iteration order.
	first, second := filepath.Join(dir, "1.cfnt"), filepath.Join(dir, "2.cfnt")
	if err := Save(first, "test", stateDict, nil); err != nil {
		t.Fatal(err)
	}
	if err := Save(second, "test", stateDict, nil); err != nil {
		t.Fatal(err)
	}

	loadedFirst, _, err := Load(first)
	if err != nil {
		t.Fatal(err)
	}
	loadedSecond, _, err := Load(second)
	if err != nil {
		t.Fatal(err)
	}
	for name := range stateDict {
		a, b := loadedFirst[name].AsFloat32(), loadedSecond[name].AsFloat32()
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("%s[%d]: %v vs %v", name, i, a[i], b[i])
			}
		}
	}
}

func TestLoad_RejectsWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.cfnt")
	if err := os.WriteFile(path, []byte("BORKxxxxxxxxxxxxxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Load(path)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("want ErrInvalidMagic, got %v", err)
	}
}

func TestLoad_DetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.cfnt")
	stateDict := map[string]*tensor.RawTensor{
		"w": rawFrom(t, tensor.Shape{4}, []float32{1, 2, 3, 4}),
	}
	if err := Save(path, "test", stateDict, nil); err != nil {
		t.Fatal(err)
	}

	// Flip a byte in the data section (the file tail).
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err = Load(path)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("want ErrChecksumMismatch, got %v", err)
	}
}
