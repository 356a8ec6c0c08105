package nn

import (
	"fmt"
	"strings"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Sequential chains modules so each module's output feeds the next.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a Sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward applies all modules in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns the parameters of all contained modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// SetTraining propagates the training flag to all TrainingAware modules.
func (s *Sequential[B]) SetTraining(training bool) {
	for _, module := range s.modules {
		if ta, ok := module.(TrainingAware); ok {
			ta.SetTraining(training)
		}
	}
}

// Add appends a module to the chain.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int { return len(s.modules) }

// Module returns the module at index, panicking when out of range.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic(fmt.Sprintf("sequential: index %d out of range [0, %d)", index, len(s.modules)))
	}
	return s.modules[index]
}

// String lists the contained modules, one per line.
func (s *Sequential[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, module := range s.modules {
		desc := "?"
		if str, ok := module.(fmt.Stringer); ok {
			desc = str.String()
		}
		fmt.Fprintf(&sb, "  (%d): %s\n", i, desc)
	}
	sb.WriteString(")")
	return sb.String()
}
