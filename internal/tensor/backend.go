package tensor

// Backend defines the interface compute backends must implement. The op
// surface is the one a convolutional classifier needs: broadcast
// elementwise arithmetic, matmul, conv/pool with their backward kernels,
// shape manipulation and softmax.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations.
	// Conv2D input is [N, C_in, H, W], kernel is [C_out, C_in, K_h, K_w].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	// Conv2DInputBackward and Conv2DKernelBackward produce the gradients
	// of a Conv2D forward pass given the output gradient.
	Conv2DInputBackward(input, kernel, outputGrad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, outputGrad *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D input is [N, C, H, W] with a square window.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	// MaxPool2DBackward routes the output gradient to the positions that
	// held the window maxima (flat indices captured at forward time).
	MaxPool2DBackward(input, outputGrad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Softmax along the last dimension.
	Softmax(x *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
